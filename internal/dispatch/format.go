package dispatch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	kit "blastbot/internal/transport"
)

// Audit timestamps are rendered for the operator's wall clock (UTC+3),
// independent of the host timezone.
var auditZone = time.FixedZone("UTC+3", 3*60*60)

// FormatTimestamp renders t as "DD.MM.YYYY, HH:MM:SS" in the audit
// timezone. This is the only place the presentation timezone lives.
func FormatTimestamp(t time.Time) string {
	return t.In(auditZone).Format("02.01.2006, 15:04:05")
}

// Permalink builds a reference locating a delivered message:
//   - public handle:               https://t.me/<handle>/<id>
//   - broadcast channel, private:  https://t.me/c/<id without -100>/<msg>
//   - anything else:               plain textual descriptor
func Permalink(ent kit.Entity, messageID int) string {
	if ent.Username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", ent.Username, messageID)
	}
	if ent.Kind == kit.KindChannel {
		id := strings.TrimPrefix(strconv.FormatInt(ent.ID, 10), "-100")
		return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
	}
	return fmt.Sprintf("chat %d, message %d", ent.ID, messageID)
}
