package graph

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// TimestampLayout is the format of Node.NextExecution.
const TimestampLayout = "2006-01-02T15:04:05"

// Standard five-field expressions, an optional leading seconds field, and
// descriptors such as @daily are accepted.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NextExecution returns the first activation of expr strictly after now,
// formatted with TimestampLayout in now's location. It returns "" when expr
// is empty, unparseable or never fires.
func NextExecution(expr string, now time.Time) (out string) {
	expr = strings.TrimSpace(expr)
	if expr == "" || bareTimezone(expr) {
		return ""
	}
	// the parser panics on some malformed timezone prefixes
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	sched, err := cronParser.Parse(expr)
	if err != nil {
		return ""
	}
	next := sched.Next(now)
	if next.IsZero() {
		return ""
	}
	return next.In(now.Location()).Format(TimestampLayout)
}

// bareTimezone reports a TZ= or CRON_TZ= prefix with no schedule after it.
func bareTimezone(expr string) bool {
	if !strings.HasPrefix(expr, "TZ=") && !strings.HasPrefix(expr, "CRON_TZ=") {
		return false
	}
	_, rest, _ := strings.Cut(expr, " ")
	return strings.TrimSpace(rest) == ""
}
