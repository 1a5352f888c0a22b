package challenge

// Icon is the closed set of pictograms a challenge can carry.
type Icon string

const (
	IconCamera   Icon = "camera"
	IconWalk     Icon = "walk"
	IconBook     Icon = "book"
	IconWater    Icon = "water"
	IconSun      Icon = "sun"
	IconHeart    Icon = "heart"
	IconMusic    Icon = "music"
	IconFood     Icon = "food"
	IconPlant    Icon = "plant"
	IconDumbbell Icon = "dumbbell"
)

// Icons lists every valid icon in a fixed order. Sanitizers index into it for
// deterministic fallbacks, so append only.
var Icons = []Icon{
	IconCamera,
	IconWalk,
	IconBook,
	IconWater,
	IconSun,
	IconHeart,
	IconMusic,
	IconFood,
	IconPlant,
	IconDumbbell,
}

func (i Icon) Valid() bool {
	_, ok := i.emoji()
	return ok
}

// Emoji renders the icon for text surfaces such as push notifications.
func (i Icon) Emoji() string {
	e, _ := i.emoji()
	return e
}

func (i Icon) emoji() (string, bool) {
	switch i {
	case IconCamera:
		return "📷", true
	case IconWalk:
		return "🚶", true
	case IconBook:
		return "📖", true
	case IconWater:
		return "💧", true
	case IconSun:
		return "☀️", true
	case IconHeart:
		return "❤️", true
	case IconMusic:
		return "🎵", true
	case IconFood:
		return "🍽️", true
	case IconPlant:
		return "🌱", true
	case IconDumbbell:
		return "🏋️", true
	}
	return "", false
}
