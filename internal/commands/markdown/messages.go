package markdowncmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const importDirectoryMessageType = "cms.markdown.import_directory"

// ImportDirectoryCommand imports every markdown file below Directory, which
// is relative to the handler's content root.
type ImportDirectoryCommand struct {
	Directory string `json:"directory"`
	// DryRun resolves documents without writing resources.
	DryRun bool `json:"dry_run,omitempty"`
}

func (ImportDirectoryCommand) Type() string { return importDirectoryMessageType }

func (cmd ImportDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.Contains(value.(string), "..") {
				return validation.NewError("cms.markdown.import_directory.directory_invalid", "directory must stay inside the content root")
			}
			return nil
		})),
	)
}
