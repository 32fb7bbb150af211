// Package cloudsync contains the server side of the sync wire contract:
// the per-user change feed devices pull from and push to.
package cloudsync

import (
	"encoding/base64"
	"strconv"
	"strings"

	domainerror "github.com/lifeos/backend/internal/domain/error"
)

const tokenPrefix = "seq:"

// EncodeToken returns the opaque sync token for a change sequence.
func EncodeToken(seq int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(tokenPrefix + strconv.FormatInt(seq, 10)))
}

// DecodeToken returns the change sequence of a token. An empty token is the
// start of the feed.
func DecodeToken(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || !strings.HasPrefix(string(raw), tokenPrefix) {
		return 0, invalidToken(err)
	}
	seq, err := strconv.ParseInt(strings.TrimPrefix(string(raw), tokenPrefix), 10, 64)
	if err != nil || seq < 0 {
		return 0, invalidToken(err)
	}
	return seq, nil
}

func invalidToken(err error) error {
	if err == nil {
		err = domainerror.ErrInvalidSyncToken
	}
	return domainerror.NewSyncError(domainerror.ErrCodeInvalidSyncToken, "sync token is not valid", err)
}
