package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindScanFlags registers the flags shared by the interactive commands and
// binds them into v, so a flag set on the command line wins over environment
// and file values.
func BindScanFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.String("root", v.GetString("root"), "directory to scan")
	flags.Bool("follow-symlinks", v.GetBool("follow_symlinks"), "descend into symlinked directories")
	flags.Int("max-depth", v.GetInt("max_depth"), "limit scan depth (0 = unlimited)")
	flags.Bool("include-hidden", v.GetBool("include_hidden"), "include dotfiles in the scan")
	flags.Bool("safe-mode", v.GetBool("safe_mode"), "refuse destructive actions on critical paths")
	flags.String("sort", v.GetString("sort"), "child ordering: size, name or mod")
	flags.String("theme", v.GetString("theme"), "color theme: dark or light")
	flags.String("presets-file", v.GetString("presets_file"), "YAML file with named filter presets")
	flags.String("preset", v.GetString("preset"), "filter preset to apply at startup")
	flags.String("log-level", v.GetString("log.level"), "log verbosity: debug, info, warn or error")

	pairs := map[string]string{
		"root":            "root",
		"follow_symlinks": "follow-symlinks",
		"max_depth":       "max-depth",
		"include_hidden":  "include-hidden",
		"safe_mode":       "safe-mode",
		"sort":            "sort",
		"theme":           "theme",
		"presets_file":    "presets-file",
		"preset":          "preset",
		"log.level":       "log-level",
	}
	for key, name := range pairs {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// BindReportFlags registers the report command's own flags on top of the
// shared scan flags.
func BindReportFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	flags.Int("top", v.GetInt("report.top"), "number of entries in the largest-files and extension tables")
	flags.String("min-size", v.GetString("report.min_size"), "ignore files below this size (e.g. 10MB)")
	flags.StringSlice("ext", v.GetStringSlice("report.ext"), "only count these extensions (e.g. .mp4,.mkv)")

	if err := v.BindPFlag("report.top", flags.Lookup("top")); err != nil {
		return err
	}
	if err := v.BindPFlag("report.min_size", flags.Lookup("min-size")); err != nil {
		return err
	}
	return v.BindPFlag("report.ext", flags.Lookup("ext"))
}
