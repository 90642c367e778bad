package session

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// record is the single persisted entry. Only the token is trusted on restore.
type record struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

func encodeRecord(tok string, now time.Time) (string, error) {
	data, err := json.Marshal(record{Token: tok, SavedAt: now.UTC()})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeRecord also accepts a bare token, so a hand-written token file still restores.
// A "Bearer " prefix is dropped from either form.
func decodeRecord(s string) (record, error) {
	s = strings.TrimSpace(s)
	var r record
	if strings.HasPrefix(s, "{") {
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			return record{}, err
		}
	} else {
		r.Token = s
	}
	r.Token = bareToken(r.Token)
	if r.Token == "" {
		return record{}, errors.New("record has no token")
	}
	return r, nil
}

func bareToken(tok string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tok), "Bearer "))
}
