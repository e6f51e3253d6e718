// Package munin renders snapshots in the Munin plugin line protocol.
package munin

import (
	"fmt"
	"io"
	"regexp"

	"github.com/pgpwatch/munin-pgp-expiration/internal/snapshot"
)

// SentinelFailed is emitted in value mode for identities whose resolution
// failed, so the collector records an abnormal point instead of a gap.
const SentinelFailed = -999

// fieldname rules per the Munin plugin guide: every character outside
// [A-Za-z0-9_] becomes _, as does a leading character outside [A-Za-z_].
var fieldnameRe = regexp.MustCompile(`(^[^A-Za-z_]|[^A-Za-z0-9_])`)

// CleanFieldname sanitizes an email address into a legal Munin field name.
func CleanFieldname(text string) string {
	return fieldnameRe.ReplaceAllString(text, "_")
}

// WriteConfig emits configuration mode output. Identities whose keys never
// expire carry nothing to threshold against and are omitted entirely;
// failed identities keep their label and carry the diagnostic as extinfo.
func WriteConfig(w io.Writer, snap *snapshot.Snapshot) {
	fmt.Fprintln(w, "graph_title OpenPGP key expiration")
	fmt.Fprintln(w, "graph_vlabel days to expiration")

	for _, o := range snap.Outcomes {
		if o.Status == snapshot.StatusNoExpiration {
			continue
		}
		field := CleanFieldname(o.Identity)
		fmt.Fprintf(w, "_%s.label %s\n", field, o.Identity)
		fmt.Fprintf(w, "_%s.warning 14:\n", field)
		fmt.Fprintf(w, "_%s.critical 7:\n", field)
		if o.Status == snapshot.StatusFailed {
			fmt.Fprintf(w, "_%s.extinfo %s\n", field, o.Message)
		}
	}
}

// WriteValues emits value mode output: the day count for resolved
// identities, the sentinel for failed ones, nothing for never-expiring
// ones.
func WriteValues(w io.Writer, snap *snapshot.Snapshot) {
	for _, o := range snap.Outcomes {
		var value int64
		switch o.Status {
		case snapshot.StatusDays:
			value = o.Days
		case snapshot.StatusFailed:
			value = SentinelFailed
		default:
			continue
		}
		fmt.Fprintf(w, "_%s.value %d\n", CleanFieldname(o.Identity), value)
	}
}
