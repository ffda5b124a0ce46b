package endpoint

// address builds \\.\pipe\{user}\PIME\Debug.
func address(name string) string {
	return `\\.\pipe\` + name + `\PIME\Debug`
}
