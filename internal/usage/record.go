package usage

import (
	"encoding/json"
	"strings"
	"time"
)

// StorageKey is the fixed key the usage record lives under.
const StorageKey = "tarot_premium_spread_usage"

// RecordTTL lets stores that honour expiry reclaim records long after their day is over.
const RecordTTL = 48 * time.Hour

const dateLayout = "2006-01-02"

// Record is the persisted daily usage record.
type Record struct {
	Date       string `json:"date"`
	UsedSpread string `json:"usedSpread,omitempty"`
}

// usedOn reports whether the record proves a restricted spread was used on day.
func (r Record) usedOn(day string) bool {
	return r.Date == day && r.UsedSpread != ""
}

func decodeRecord(raw []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, err
	}
	rec.Date = strings.TrimSpace(rec.Date)
	if _, err := time.Parse(dateLayout, rec.Date); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func encodeRecord(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}
