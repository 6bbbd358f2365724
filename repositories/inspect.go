package repositories

import (
	"fmt"
	"strings"

	"github.com/mama165/sdk-go/database"
)

// InspectMapper renders a badger entry for the debug inspector.
// Password hashes are never shown.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	switch {
	case strings.HasPrefix(key, "msgidx:"), strings.HasPrefix(key, usernamePrefix):
		row.Type = "POINTER"
		row.Detail = string(val)
		return row
	}

	r, err := decode(val)
	if err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}

	switch {
	case strings.HasPrefix(key, channelPrefix):
		row.Type = "CHANNEL"
		row.Detail = fmt.Sprintf("%s %q (%d participants, active=%t)",
			r.str("type"), r.str("name"), len(r.strings("participants")), r.boolean("active"))
	case strings.HasPrefix(key, "msg:"):
		row.Type = "MESSAGE"
		message, err := toMessage(r)
		if err != nil {
			row.Detail = "Error: " + err.Error()
			return row
		}
		row.Detail = message.ExportString()
	case strings.HasPrefix(key, userPrefix):
		row.Type = "USER"
		row.Detail = fmt.Sprintf("%s (%s) online=%t", r.str("username"), r.str("full_name"), r.boolean("online"))
	default:
		row.Type = "UNKNOWN"
	}
	return row
}
