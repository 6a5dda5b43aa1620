package walker

import (
	"path/filepath"
	"strings"
)

// extensionToLanguage maps file extensions to language names.
var extensionToLanguage = map[string]string{
	".go":     "Go",
	".py":     "Python",
	".pyi":    "Python",
	".ts":     "TypeScript",
	".tsx":    "TypeScript",
	".mts":    "TypeScript",
	".js":     "JavaScript",
	".jsx":    "JavaScript",
	".mjs":    "JavaScript",
	".cjs":    "JavaScript",
	".rs":     "Rust",
	".java":   "Java",
	".c":      "C",
	".h":      "C",
	".cpp":    "C++",
	".cc":     "C++",
	".hpp":    "C++",
	".cs":     "C#",
	".rb":     "Ruby",
	".php":    "PHP",
	".swift":  "Swift",
	".kt":     "Kotlin",
	".kts":    "Kotlin",
	".scala":  "Scala",
	".sh":     "Shell",
	".bash":   "Shell",
	".sql":    "SQL",
	".html":   "HTML",
	".css":    "CSS",
	".yaml":   "YAML",
	".yml":    "YAML",
	".json":   "JSON",
	".toml":   "TOML",
	".tf":     "Terraform",
	".md":     "Markdown",
	".proto":  "Protobuf",
	".lua":    "Lua",
	".dart":   "Dart",
	".ex":     "Elixir",
	".exs":    "Elixir",
	".hs":     "Haskell",
	".vue":    "Vue",
	".svelte": "Svelte",
}

// filenameToLanguage maps specific filenames to language names.
var filenameToLanguage = map[string]string{
	"Dockerfile": "Dockerfile",
	"Makefile":   "Makefile",
	"Gemfile":    "Ruby",
	"Rakefile":   "Ruby",
}

// DetectLanguage returns the programming language for a given filename
// based on its extension or exact filename. Returns "unknown" for
// unrecognized files.
func DetectLanguage(filename string) string {
	base := filepath.Base(filename)

	if lang, ok := filenameToLanguage[base]; ok {
		return lang
	}

	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return "unknown"
	}

	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}

	return "unknown"
}
