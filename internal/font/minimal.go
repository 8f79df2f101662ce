package font

// 3x5 bitmaps, rows separated by '|'.
var minimalGlyphs = map[rune]string{
	' ': "...|...|...|...|...",
	'.': "...|...|...|...|.#.",
	',': "...|...|...|.#.|#..",
	':': "...|.#.|...|.#.|...",
	'-': "...|...|###|...|...",
	'+': "...|.#.|###|.#.|...",
	'!': ".#.|.#.|.#.|...|.#.",
	'?': "##.|..#|.#.|...|.#.",
	'/': "..#|..#|.#.|#..|#..",
	'0': "###|#.#|#.#|#.#|###",
	'1': ".#.|##.|.#.|.#.|###",
	'2': "##.|..#|.#.|#..|###",
	'3': "##.|..#|.#.|..#|##.",
	'4': "#.#|#.#|###|..#|..#",
	'5': "###|#..|##.|..#|##.",
	'6': ".##|#..|###|#.#|###",
	'7': "###|..#|.#.|.#.|.#.",
	'8': "###|#.#|###|#.#|###",
	'9': "###|#.#|###|..#|##.",
	'A': ".#.|#.#|###|#.#|#.#",
	'B': "##.|#.#|##.|#.#|##.",
	'C': ".##|#..|#..|#..|.##",
	'D': "##.|#.#|#.#|#.#|##.",
	'E': "###|#..|##.|#..|###",
	'F': "###|#..|##.|#..|#..",
	'G': ".##|#..|#.#|#.#|.##",
	'H': "#.#|#.#|###|#.#|#.#",
	'I': "###|.#.|.#.|.#.|###",
	'J': "..#|..#|..#|#.#|.#.",
	'K': "#.#|#.#|##.|#.#|#.#",
	'L': "#..|#..|#..|#..|###",
	'M': "#.#|###|###|#.#|#.#",
	'N': "##.|#.#|#.#|#.#|#.#",
	'O': ".#.|#.#|#.#|#.#|.#.",
	'P': "##.|#.#|##.|#..|#..",
	'Q': ".#.|#.#|#.#|##.|.##",
	'R': "##.|#.#|##.|#.#|#.#",
	'S': ".##|#..|.#.|..#|##.",
	'T': "###|.#.|.#.|.#.|.#.",
	'U': "#.#|#.#|#.#|#.#|###",
	'V': "#.#|#.#|#.#|#.#|.#.",
	'W': "#.#|#.#|###|###|#.#",
	'X': "#.#|#.#|.#.|#.#|#.#",
	'Y': "#.#|#.#|.#.|.#.|.#.",
	'Z': "###|..#|.#.|#..|###",
}
