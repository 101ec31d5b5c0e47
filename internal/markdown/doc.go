// Package markdown imports resources from a directory of markdown files.
// Directories become parent resources through their index.md file and
// front matter carries the resource attributes.
package markdown
