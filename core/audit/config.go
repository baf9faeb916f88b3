package audit

import "strings"

// MachinePlaceholder in a collection name is replaced by the host name.
const MachinePlaceholder = "_MACHINE"

// Config holds audit settings loaded from the environment.
type Config struct {
	Disabled        bool     `env:"AUDIT_DISABLED" envDefault:"false"`
	IncludeCommands []string `env:"AUDIT_INCLUDE_COMMANDS" envSeparator:","`
	ExcludeCommands []string `env:"AUDIT_EXCLUDE_COMMANDS" envSeparator:","`
	Process         string   `env:"AUDIT_PROCESS"`
	Collection      string   `env:"AUDIT_COLLECTION" envDefault:"audit_MACHINE"`
}

// CollectionName expands MachinePlaceholder in name with the host name, so
// every node can write to its own collection.
func CollectionName(name string) string {
	return strings.ReplaceAll(name, MachinePlaceholder, "_"+hostName())
}
