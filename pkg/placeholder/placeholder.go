// Package placeholder provides the deterministic NFT image and artist avatar pools.
package placeholder

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"
)

// ImagePoolSize is the number of bundled NFT images (/images/1.png .. /images/13.png)
const ImagePoolSize = 13

var avatarColors = []string{
	"#A259FF",
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#96CEB4",
	"#FFEAA7",
	"#DDA0DD",
	"#98D8C8",
}

var artistNames = []string{
	"Shroomie",
	"BeKind2Robots",
	"Mr Fox",
	"Keepitreal",
	"Robotica",
	"MoonDancer",
	"NebulaKid",
	"Animakid",
	"Catch 22",
	"Ice Ape Club",
	"PuppyPower",
}

var avatarPool = buildAvatarPool()

func buildAvatarPool() []string {
	pool := make([]string, 0, len(artistNames))
	for _, name := range artistNames {
		pool = append(pool, Avatar(100, name))
	}
	return pool
}

// NFTImagePath maps a token id onto the image pool: (tokenID mod 13) + 1.
func NFTImagePath(tokenID *big.Int) string {
	return fmt.Sprintf("/images/%d.png", poolIndex(tokenID, ImagePoolSize)+1)
}

// AvatarFor picks an artist avatar from the pool by token id
func AvatarFor(tokenID *big.Int) string {
	return avatarPool[poolIndex(tokenID, len(avatarPool))]
}

// AvatarPool returns a copy of the artist avatar pool
func AvatarPool() []string {
	out := make([]string, len(avatarPool))
	copy(out, avatarPool)
	return out
}

func poolIndex(tokenID *big.Int, size int) int {
	if tokenID == nil || size <= 0 {
		return 0
	}
	// Euclidean modulus keeps the index in [0, size) for any sign.
	m := new(big.Int).Mod(tokenID, big.NewInt(int64(size)))
	return int(m.Int64())
}

// Avatar renders a round avatar with the name's initials as an SVG data URI
func Avatar(size int, name string) string {
	initials := Initials(name)
	bg := avatarColors[len(name)%len(avatarColors)]
	half := size / 2
	svg := fmt.Sprintf(
		`<svg width="%d" height="%d" viewBox="0 0 %d %d" fill="none" xmlns="http://www.w3.org/2000/svg">`+
			`<rect width="%d" height="%d" rx="%d" fill="%s"/>`+
			`<text x="%d" y="%d" font-family="Arial, sans-serif" font-size="%d" font-weight="600" fill="white" text-anchor="middle">%s</text>`+
			`</svg>`,
		size, size, size, size,
		size, size, half, bg,
		half, half+6, size*2/5, initials,
	)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}

// Initials returns up to two upper-case initials of name
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, " ") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}
