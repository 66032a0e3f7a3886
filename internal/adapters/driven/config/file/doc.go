// Package file provides filesystem-backed driven adapters.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.clausewise/config.toml
//   - PromptStore: user-editable analysis prompts under ~/.clausewise/prompts
package file
