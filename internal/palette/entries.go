package palette

// BaseID identifies a named base color of the default palette. It equals the
// palette index of the named entry.
type BaseID uint8

// Named base colors of the default palette, in index order.
const (
	Air BaseID = iota
	Grass
	Sand
	Cloth
	TNT
	Ice
	Iron
	Foliage
	Snow
	Clay
	Dirt
	Stone
	Water
	Wood
	Quartz
	Adobe
	Magenta
	LightBlue
	Yellow
	Lime
	Pink
	Gray
	Silver
	Cyan
	Purple
	Blue
	Brown
	Green
	Red
	Black
	Gold
	Diamond
	Lapis
	Emerald
	Obsidian
	Netherrack
)

// Entry defines one named base color. Color is the raw, unshaded value.
type Entry struct {
	Name        string
	Color       Color
	Transparent bool
}

// DefaultEntries returns the named base colors of the default palette.
// Index 0 is the transparent AIR entry.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "AIR", Transparent: true},
		{Name: "GRASS", Color: RGB(127, 178, 56)},
		{Name: "SAND", Color: RGB(247, 233, 163)},
		{Name: "CLOTH", Color: RGB(199, 199, 199)},
		{Name: "TNT", Color: RGB(255, 0, 0)},
		{Name: "ICE", Color: RGB(160, 160, 255)},
		{Name: "IRON", Color: RGB(167, 167, 167)},
		{Name: "FOLIAGE", Color: RGB(0, 124, 0)},
		{Name: "SNOW", Color: RGB(255, 255, 255)},
		{Name: "CLAY", Color: RGB(164, 168, 184)},
		{Name: "DIRT", Color: RGB(151, 109, 77)},
		{Name: "STONE", Color: RGB(112, 112, 112)},
		{Name: "WATER", Color: RGB(64, 64, 255)},
		{Name: "WOOD", Color: RGB(143, 119, 72)},
		{Name: "QUARTZ", Color: RGB(255, 252, 245)},
		{Name: "ADOBE", Color: RGB(216, 127, 51)},
		{Name: "MAGENTA", Color: RGB(178, 76, 216)},
		{Name: "LIGHT_BLUE", Color: RGB(102, 153, 216)},
		{Name: "YELLOW", Color: RGB(229, 229, 51)},
		{Name: "LIME", Color: RGB(127, 204, 25)},
		{Name: "PINK", Color: RGB(242, 127, 165)},
		{Name: "GRAY", Color: RGB(76, 76, 76)},
		{Name: "SILVER", Color: RGB(153, 153, 153)},
		{Name: "CYAN", Color: RGB(76, 127, 153)},
		{Name: "PURPLE", Color: RGB(127, 63, 178)},
		{Name: "BLUE", Color: RGB(51, 76, 178)},
		{Name: "BROWN", Color: RGB(102, 76, 51)},
		{Name: "GREEN", Color: RGB(102, 127, 51)},
		{Name: "RED", Color: RGB(153, 51, 51)},
		{Name: "BLACK", Color: RGB(25, 25, 25)},
		{Name: "GOLD", Color: RGB(250, 238, 77)},
		{Name: "DIAMOND", Color: RGB(92, 219, 213)},
		{Name: "LAPIS", Color: RGB(74, 128, 255)},
		{Name: "EMERALD", Color: RGB(0, 217, 58)},
		{Name: "OBSIDIAN", Color: RGB(129, 86, 49)},
		{Name: "NETHERRACK", Color: RGB(112, 2, 0)},
	}
}
