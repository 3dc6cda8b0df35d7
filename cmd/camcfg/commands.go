package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/camcfg/internal/boot"
	"github.com/muurk/camcfg/internal/cfgerr"
	"github.com/muurk/camcfg/internal/config"
	"github.com/muurk/camcfg/internal/report"
	"github.com/muurk/camcfg/internal/runtime"
	"github.com/muurk/camcfg/internal/schema"
	"github.com/muurk/camcfg/internal/storage"
)

// Command flags
var (
	showFormat   string
	defaultsOut  string
	strictReport bool
)

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checksumCmd)
	rootCmd.AddCommand(defaultsCmd)
	rootCmd.AddCommand(keysCmd)
}

// session is a bootstrapped runtime over one configuration file
type session struct {
	path    string
	boot    boot.Report
	runtime *runtime.Runtime
	engine  *storage.Engine
}

// openSession boot-loads the configuration file. With allowMissing, an
// absent file yields the defaults instead of an error. No persister is
// bound, so Shutdown leaves the file alone until persist is called.
func openSession(allowMissing bool) (*session, error) {
	path := config.ResolvePath(configPath)
	cfg := config.New()

	rep, err := boot.Load(cfg, boot.Options{Path: path, NoFallback: noFallback})
	switch {
	case err == nil:
		path = rep.Path
	case allowMissing && storage.IsNotExist(err):
	default:
		return nil, err
	}

	rt := runtime.New()
	if err := rt.Bootstrap(cfg); err != nil {
		return nil, err
	}
	return &session{path: path, boot: rep, runtime: rt, engine: storage.NewEngine(rt)}, nil
}

// persist makes the next Shutdown write the file
func (s *session) persist() {
	s.runtime.SetPersister(s.engine, s.path)
}

// parseSetting splits "section.key" and resolves its descriptor
func parseSetting(arg string) (schema.SectionID, *schema.Descriptor, error) {
	name, key, ok := strings.Cut(arg, ".")
	if !ok || name == "" || key == "" {
		return 0, nil, fmt.Errorf("invalid setting %q (expected section.key)", arg)
	}
	section, ok := schema.ParseSection(name)
	if !ok {
		return 0, nil, fmt.Errorf("unknown section %q", name)
	}
	d := schema.Find(section, key)
	if d == nil {
		return 0, nil, fmt.Errorf("unknown setting %s.%s", section, key)
	}
	return section, d, nil
}

// getCmd prints one setting
var getCmd = &cobra.Command{
	Use:   "get <section.key>",
	Short: "Print one setting",
	Long: `Print the value of one setting as it would be stored in the file.

Settings missing from the file report their default.`,
	Example: `  camcfg get onvif.http_port
  camcfg get stream_profile_1.bitrate --config ./anyka_cfg.ini`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	section, d, err := parseSetting(args[0])
	if err != nil {
		return err
	}
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer func() { _ = s.runtime.Shutdown() }()

	v, err := s.runtime.Get(section, d.Key)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.String())
	return nil
}

// setCmd changes one setting and writes the file
var setCmd = &cobra.Command{
	Use:   "set <section.key> <value>",
	Short: "Change one setting and save",
	Long: `Validate a value against the setting's type and range, then rewrite
the configuration file.

The value is checked strictly: out-of-range numbers, overlong strings and
wrong types are refused and the file is left untouched. The file is
rewritten in canonical order; comments and unknown keys are not kept.`,
	Example: `  camcfg set onvif.http_port 8000
  camcfg set device.model "AK3918EV300"
  camcfg set ptz_preset_profile_1.preset1_pan 45.5`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	section, d, err := parseSetting(args[0])
	if err != nil {
		return err
	}
	v, err := d.Parse(args[1])
	if err != nil {
		return err
	}

	s, err := openSession(true)
	if err != nil {
		return err
	}
	if err := s.runtime.Set(section, d.Key, v); err != nil {
		_ = s.runtime.Shutdown()
		return err
	}
	s.persist()
	if err := s.runtime.Shutdown(); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", d.Name(), v.String())
	return nil
}

// showCmd prints the whole configuration
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show every setting after the boot load has applied defaults and
repairs.

Formats:
  yaml - grouped summary with boot statistics, password redacted
  ini  - exactly what a save would write`,
	Example: `  camcfg show
  camcfg show --format ini`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showFormat, "format", "yaml", "Output format (yaml, ini)")
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(true)
	if err != nil {
		return err
	}
	defer func() { _ = s.runtime.Shutdown() }()

	out := cmd.OutOrStdout()
	switch showFormat {
	case "yaml":
		summary := report.Build(s.runtime.Snapshot(), s.runtime.Generation(), s.runtime.PendingWrites()).WithBoot(s.boot)
		data, err := summary.YAML()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "ini":
		settings, err := s.runtime.Export()
		if err != nil {
			return err
		}
		_, err = out.Write(storage.Serialize(settings))
		return err
	default:
		return fmt.Errorf("unknown format %q (expected yaml or ini)", showFormat)
	}
}

// validateCmd checks a file without changing anything
var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a configuration file",
	Long: `Check that a file is a readable INI file within the size limit, then
apply it to a scratch copy of the defaults through the strict setters and
report what would be refused.

Nothing is written.`,
	Example: `  camcfg validate
  camcfg validate ./anyka_cfg.ini --strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&strictReport, "strict", false, "Fail if any line is rejected, unknown or malformed")
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := config.ResolvePath(configPath)
	if len(args) == 1 {
		path = config.ResolvePath(args[0])
	}
	if err := storage.ValidateFile(path); err != nil {
		return err
	}

	rt := runtime.New()
	if err := rt.Bootstrap(config.New()); err != nil {
		return err
	}
	defer func() { _ = rt.Shutdown() }()

	stats, err := storage.NewEngine(rt).LoadWithStats(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d applied, %d unchanged, %d rejected, %d unknown, %d malformed\n",
		path, stats.Applied, stats.Unchanged, stats.Rejected, stats.Unknown, stats.Malformed)

	if strictReport && stats.Rejected+stats.Unknown+stats.Malformed > 0 {
		return cfgerr.New(cfgerr.InvalidFormat, "validate", "%s has problems", path)
	}
	return nil
}

// checksumCmd prints the integrity hash of a file
var checksumCmd = &cobra.Command{
	Use:   "checksum [file]",
	Short: "Print the 32-bit checksum of a file",
	Long: `Print the one-at-a-time hash of the raw file bytes in hex. The value
changes with any edit and is meant for spotting accidental corruption, not
tampering.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChecksum,
}

func runChecksum(cmd *cobra.Command, args []string) error {
	path := config.ResolvePath(configPath)
	if len(args) == 1 {
		path = config.ResolvePath(args[0])
	}
	data, err := storage.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%08x  %s\n", storage.Checksum(data), path)
	return nil
}

// defaultsCmd writes a fresh configuration
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print or write the default configuration",
	Example: `  camcfg defaults
  camcfg defaults --out /etc/jffs2/anyka_cfg.ini`,
	Args: cobra.NoArgs,
	RunE: runDefaults,
}

func init() {
	defaultsCmd.Flags().StringVarP(&defaultsOut, "out", "o", "", "Write to this file instead of stdout")
}

func runDefaults(cmd *cobra.Command, args []string) error {
	rt := runtime.New()
	if err := rt.Bootstrap(config.New()); err != nil {
		return err
	}
	defer func() { _ = rt.Shutdown() }()

	if defaultsOut != "" {
		if err := storage.NewEngine(rt).Save(defaultsOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote defaults to %s\n", defaultsOut)
		return nil
	}

	settings, err := rt.Export()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(storage.Serialize(settings))
	return err
}

// keysCmd lists the schema
var keysCmd = &cobra.Command{
	Use:   "keys [section]",
	Short: "List known settings with type, range and default",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKeys,
}

func runKeys(cmd *cobra.Command, args []string) error {
	var descs []*schema.Descriptor
	if len(args) == 1 {
		section, ok := schema.ParseSection(args[0])
		if !ok {
			return fmt.Errorf("unknown section %q", args[0])
		}
		descs = schema.InSection(section)
	} else {
		for i := 0; i < schema.Len(); i++ {
			descs = append(descs, schema.At(i))
		}
	}

	out := cmd.OutOrStdout()
	for _, d := range descs {
		var limits string
		switch d.Type {
		case schema.Int, schema.Float:
			limits = fmt.Sprintf("[%g, %g]", d.Min, d.Max)
		case schema.String:
			limits = fmt.Sprintf("max %d", d.MaxLength-1)
		}
		req := ""
		if d.Required {
			req = " required"
		}
		fmt.Fprintf(out, "%-40s %-6s %-16s default=%q%s\n", d.Name(), d.Type, limits, d.Default, req)
	}
	return nil
}
