package telephony

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"freshfade/models"
)

// EncodeState packs a context snapshot into a URL-safe token.
func EncodeState(s models.ContextSnapshot) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeState reverses EncodeState. An empty token yields an empty snapshot.
func DecodeState(token string) (models.ContextSnapshot, error) {
	var s models.ContextSnapshot
	if token == "" {
		return s, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return s, fmt.Errorf("malformed state token: %w", err)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("malformed state token: %w", err)
	}
	if s.State != "" && !s.State.Valid() {
		return models.ContextSnapshot{}, fmt.Errorf("unknown dialogue state %q", s.State)
	}
	return s, nil
}
