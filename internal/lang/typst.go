package lang

func init() {
	Languages["typst"] = &Language{
		Name:       "typst",
		Extensions: []string{".typ"},
	}
}
