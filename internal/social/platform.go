package social

import (
	"fmt"
	"strings"
)

// Platform è il social network di destinazione del post
type Platform string

const (
	PlatformTwitter   Platform = "Twitter/X"
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformInstagram Platform = "Instagram"
)

// TwitterCharLimit è il limite di caratteri di un post su Twitter/X
const TwitterCharLimit = 280

// Platforms restituisce le piattaforme supportate, nell'ordine del form
func Platforms() []Platform {
	return []Platform{PlatformTwitter, PlatformLinkedIn, PlatformInstagram}
}

// ParsePlatform riconosce il nome di una piattaforma (case-insensitive)
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "twitter/x", "twitter", "x":
		return PlatformTwitter, nil
	case "linkedin":
		return PlatformLinkedIn, nil
	case "instagram":
		return PlatformInstagram, nil
	default:
		return "", fmt.Errorf("%w: unsupported platform %q", ErrInvalidRequest, s)
	}
}

// Constraint restituisce le regole di formato passate al writer
func (p Platform) Constraint() string {
	switch p {
	case PlatformTwitter:
		return fmt.Sprintf("The post must be under %d characters, including hashtags.", TwitterCharLimit)
	case PlatformLinkedIn:
		return "Use a professional tone in 3 to 5 short paragraphs and end with a clear takeaway."
	case PlatformInstagram:
		return "Write an engaging caption with short lines, a few emojis and 5 to 10 relevant hashtags."
	default:
		return ""
	}
}

func (p Platform) String() string { return string(p) }
