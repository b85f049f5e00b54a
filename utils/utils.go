package utils

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/golang-jwt/jwt"
	"github.com/muesli/termenv"
)

const (
	// previewHorizontalSpace accounts for the preview pane's border and
	// padding when deriving the word-wrap width.
	previewHorizontalSpace = 4
	defaultWrapWidth       = 100
)

func ValidateInput(input string) ([]string, error) {
	if input == "" {
		return []string{}, nil
	}

	items := strings.Split(input, " ")
	for _, item := range items {
		if !isValidInput(item) {
			return nil, fmt.Errorf(
				"invalid input '%s': Input must only contain alphanumeric characters, hyphens, and underscores",
				item,
			)
		}
	}
	return items, nil
}

func isValidInput(input string) bool {
	return regexp.MustCompile(`^[a-zA-Z0-9-_]+$`).MatchString(input)
}

// RenderMarkupPreview renders note content for the preview pane. Rendering
// problems degrade to a message rather than an error so the pane always has
// something to show.
func RenderMarkupPreview(content string, w int) string {
	wrapWidth := w - previewHorizontalSpace
	if wrapWidth <= 0 {
		wrapWidth = defaultWrapWidth
	}

	r, _ := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(wrapWidth),
		glamour.WithColorProfile(termenv.ANSI256),
	)

	rendered, err := r.Render(content)
	if err != nil {
		return "Error rendering preview" // Displayed in Preview Pane
	}
	return rendered
}

// RelativeTime formats a unix-millisecond stamp as a short age for list
// rows, e.g. "just now", "5m ago", "3d ago".
func RelativeTime(millis int64) string {
	if millis == 0 {
		return ""
	}

	d := time.Since(time.UnixMilli(millis))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return time.UnixMilli(millis).Format("2006-01-02")
	}
}

var reasonText = map[string]string{
	"":             "syncing",
	"success":      "synced",
	"unauthorized": "sync failed: not signed in",
	"unreachable":  "sync failed: server unreachable",
	"rejected":     "sync failed: rejected by server",
}

// ReasonText translates a sync reason code into display text. Unknown codes
// pass through untouched so new server reasons stay visible.
func ReasonText(reason string) string {
	if text, ok := reasonText[reason]; ok {
		return text
	}
	return reason
}

// Claims are the fields embedded in a sync access token.
type Claims struct {
	UserID int32 `json:"user_id"`
	jwt.StandardClaims
}

// GetClaims validates token against the shared secret and returns its
// claims. The secret may be base64-encoded; raw bytes are accepted as-is.
func GetClaims(token, secret string) (*Claims, error) {
	key := []byte(secret)
	if decoded, err := base64.StdEncoding.DecodeString(secret); err == nil {
		key = decoded
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
