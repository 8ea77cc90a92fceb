package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/zap"

	"github.com/rejig-dev/rejig/internal/analyze"
	"github.com/rejig-dev/rejig/internal/config"
	"github.com/rejig-dev/rejig/internal/convert"
	"github.com/rejig-dev/rejig/internal/logging"
	"github.com/rejig-dev/rejig/internal/patch"
	"github.com/rejig-dev/rejig/internal/review"
	"github.com/rejig-dev/rejig/internal/verify"
	"github.com/rejig-dev/rejig/internal/workspace"
)

// Version info set by ldflags at build time
var (
	version    = "dev"
	commitHash = "dev"
)

var (
	addColor    = color.New(color.FgGreen)
	deleteColor = color.New(color.FgRed)
	pathColor   = color.New(color.FgCyan)
	dimColor    = color.New(color.FgWhite, color.Faint)
	errorColor  = color.New(color.FgRed)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
)

const usageText = `rejig - turn diffs into structured edits for Python codebases

Usage:
  rejig parse [-stat] <diff>                parse a diff and summarize it
  rejig analyze <diff>                      print detected operations
  rejig convert [-mode smart|literal] [-config file] <diff>
                                            print generated rejig calls
  rejig script [-mode smart|literal] [-o out.py] [-config file] <diff>
                                            print a runnable edit script
  rejig apply [-root dir] [-dry-run] [-reverse] [-verify]
              [-respect-gitignore] [-config file] [-log file] <diff>
                                            apply the diff to a workspace
  rejig review [-root dir] [-config file] [-log file] <diff>
                                            review interactively, then apply
  rejig diff [-stat] <old> <new>            diff two files
  rejig version                             print version

<diff> of "-" reads the diff from stdin.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "parse":
		err = cmdParse(args)
	case "analyze":
		err = cmdAnalyze(args)
	case "convert":
		err = cmdConvert(args)
	case "script":
		err = cmdScript(args)
	case "apply":
		err = cmdApply(args)
	case "review":
		err = cmdReview(args)
	case "diff":
		err = cmdDiff(args)
	case "version":
		fmt.Printf("rejig %s-%s\n", version, commitHash)
	case "help", "-h", "--help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	if err != nil {
		errorColor.Fprintf(os.Stderr, "rejig %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// readDiff loads the diff named by the flag set's first positional
// argument; "-" means stdin.
func readDiff(fs *flag.FlagSet) (*patch.Patch, error) {
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("missing diff argument")
	}
	name := fs.Arg(0)

	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("read diff: %w", err)
	}
	return patch.Parse(string(data)), nil
}

func cmdParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	stat := fs.Bool("stat", false, "print per-file change counts")
	fs.Parse(args)

	p, err := readDiff(fs)
	if err != nil {
		return err
	}
	printSummary(p, *stat)
	return nil
}

func printSummary(p *patch.Patch, stat bool) {
	if p.IsEmpty() {
		dimColor.Println("empty patch")
		return
	}

	for i := range p.Files {
		f := &p.Files[i]
		marker := "M"
		switch {
		case f.IsNew:
			marker = "A"
		case f.IsDeleted:
			marker = "D"
		case f.IsRenamed:
			marker = "R"
		}
		if f.IsBinary {
			marker = "B"
		}

		fmt.Printf("%s ", marker)
		if f.IsRenamed {
			pathColor.Printf("%s -> %s", f.OldPath, f.NewPath)
		} else {
			pathColor.Printf("%s", f.Path())
		}
		if stat && !f.IsBinary {
			fmt.Print("  ")
			addColor.Printf("+%d", f.Additions())
			fmt.Print("/")
			deleteColor.Printf("-%d", f.Deletions())
		}
		fmt.Println()
	}

	fmt.Printf("%d file(s), ", len(p.Files))
	addColor.Printf("+%d", p.Additions())
	fmt.Print("/")
	deleteColor.Printf("-%d", p.Deletions())
	fmt.Println()
}

func cmdAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	fs.Parse(args)

	p, err := readDiff(fs)
	if err != nil {
		return err
	}

	ops := analyze.OptimalOperations(p)
	if len(ops) == 0 {
		dimColor.Println("no operations detected")
		return nil
	}
	for _, op := range ops {
		if op.Confidence < 1.0 {
			warnColor.Printf("%-16s", op.Kind)
		} else {
			okColor.Printf("%-16s", op.Kind)
		}
		pathColor.Printf(" %s", op.FilePath)
		switch {
		case op.Kind.IsRename():
			fmt.Printf("  %s -> %s", op.Details["old_name"], op.Name())
		case op.Name() != "":
			fmt.Printf("  %s", op.Name())
		case op.Details["statement"] != "":
			fmt.Printf("  %s", op.Details["statement"])
		}
		dimColor.Printf("  (confidence %.1f)\n", op.Confidence)
	}
	return nil
}

// resolveMode picks the codegen mode: an explicit -mode flag wins,
// otherwise the config file's codegen.mode (with its REJIG_MODE env
// override) applies.
func resolveMode(fs *flag.FlagSet, modeFlag, configPath string) (convert.Mode, error) {
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "mode" {
			explicit = true
		}
	})
	if explicit {
		return convert.ParseMode(modeFlag)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return convert.ModeSmart, err
	}
	return convert.ParseMode(cfg.Codegen.Mode)
}

func cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	modeFlag := fs.String("mode", "smart", "codegen mode: smart or literal")
	configPath := fs.String("config", ".rejig.yaml", "path to config file")
	fs.Parse(args)

	mode, err := resolveMode(fs, *modeFlag, *configPath)
	if err != nil {
		return err
	}
	p, err := readDiff(fs)
	if err != nil {
		return err
	}
	fmt.Print(convert.GenerateCode(p, mode))
	return nil
}

func cmdScript(args []string) error {
	fs := flag.NewFlagSet("script", flag.ExitOnError)
	modeFlag := fs.String("mode", "smart", "codegen mode: smart or literal")
	out := fs.String("o", "", "write the script to this file instead of stdout")
	configPath := fs.String("config", ".rejig.yaml", "path to config file")
	fs.Parse(args)

	mode, err := resolveMode(fs, *modeFlag, *configPath)
	if err != nil {
		return err
	}
	p, err := readDiff(fs)
	if err != nil {
		return err
	}

	script := convert.GenerateScript(p, mode)
	if *out == "" {
		fmt.Print(script)
		return nil
	}
	if err := os.WriteFile(*out, []byte(script), 0755); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	okColor.Printf("wrote %s\n", *out)
	return nil
}

// applyFlags is the flag surface shared by apply and review.
type applyFlags struct {
	fs         *flag.FlagSet
	root       *string
	configPath *string
	logPath    *string
	dryRun     *bool
	reverse    *bool
	verifyFlag *bool
	gitignore  *bool
}

func newApplyFlags(name string) *applyFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &applyFlags{
		fs:         fs,
		root:       fs.String("root", "", "workspace root (default from config, else .)"),
		configPath: fs.String("config", ".rejig.yaml", "path to config file"),
		logPath:    fs.String("log", "", "log file path (empty to disable)"),
		dryRun:     fs.Bool("dry-run", false, "report changes without writing files"),
		reverse:    fs.Bool("reverse", false, "apply the patch in reverse"),
		verifyFlag: fs.Bool("verify", false, "check patched Python files still parse"),
		gitignore:  fs.Bool("respect-gitignore", false, "skip gitignored paths"),
	}
}

// load merges config-file settings with explicitly set flags; a flag
// given on the command line wins.
func (a *applyFlags) load() (*config.Config, error) {
	cfg, err := config.Load(*a.configPath)
	if err != nil {
		return nil, err
	}

	set := map[string]bool{}
	a.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["root"] {
		cfg.Workspace.Root = *a.root
	}
	if set["log"] {
		cfg.Logging.Path = *a.logPath
	}
	if set["dry-run"] {
		cfg.Apply.DryRun = *a.dryRun
	}
	if set["verify"] {
		cfg.Apply.Verify = *a.verifyFlag
	}
	if set["respect-gitignore"] {
		cfg.Workspace.RespectGitignore = *a.gitignore
	}
	return cfg, nil
}

func cmdApply(args []string) error {
	af := newApplyFlags("apply")
	af.fs.Parse(args)

	cfg, err := af.load()
	if err != nil {
		return err
	}
	p, err := readDiff(af.fs)
	if err != nil {
		return err
	}
	if *af.reverse {
		p = p.Reverse()
	}
	return runApply(p, cfg)
}

func runApply(p *patch.Patch, cfg *config.Config) error {
	log, err := logging.New(cfg.Logging.Path, cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer log.Close()

	dir, err := workspace.NewDir(cfg.Workspace.Root)
	if err != nil {
		return err
	}
	if !cfg.Apply.DryRun {
		lock, err := workspace.AcquireLock(dir.Root())
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	opts := convert.ApplyOptions{
		DryRun: cfg.Apply.DryRun,
		Logger: log.Zap(),
	}
	if cfg.Workspace.RespectGitignore {
		if err := dir.LoadGitignore(); err != nil {
			return err
		}
		opts.Ignore = dir.Ignored
	}
	if cfg.Apply.Verify {
		opts.Verify = verify.NewChecker().File
	}

	log.Info("applying patch",
		zap.Int("files", len(p.Files)),
		zap.String("root", dir.Root()),
		zap.Bool("dry_run", opts.DryRun),
	)

	res := convert.Apply(p, dir, opts)
	printApplyResult(res)
	if !res.OK() {
		err := fmt.Errorf("%d file(s) failed", countFailed(res))
		log.Error("apply finished with failures", err)
		return err
	}
	return nil
}

func printApplyResult(res *convert.ApplyResult) {
	for _, f := range res.Files {
		switch {
		case !f.OK:
			errorColor.Printf("fail    %s: %s\n", f.Path, f.Err)
		case f.Action == convert.ActionSkipped:
			dimColor.Printf("skip    %s\n", f.Path)
		default:
			okColor.Printf("%-7s ", f.Action)
			pathColor.Printf("%s\n", f.Path)
		}
		if res.DryRun && f.Diff != "" {
			fmt.Print(f.Diff)
		}
	}
	if res.DryRun {
		dimColor.Println("dry run: no files were written")
	}
}

func countFailed(res *convert.ApplyResult) int {
	n := 0
	for _, f := range res.Files {
		if !f.OK {
			n++
		}
	}
	return n
}

func cmdReview(args []string) error {
	af := newApplyFlags("review")
	af.fs.Parse(args)

	cfg, err := af.load()
	if err != nil {
		return err
	}
	p, err := readDiff(af.fs)
	if err != nil {
		return err
	}
	if p.IsEmpty() {
		dimColor.Println("nothing to review")
		return nil
	}

	approved, err := review.Run(p)
	if err != nil {
		return err
	}
	if approved == nil {
		warnColor.Println("review aborted, nothing applied")
		return nil
	}
	if approved.IsEmpty() {
		dimColor.Println("no files approved")
		return nil
	}
	return runApply(approved, cfg)
}

func cmdDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	stat := fs.Bool("stat", false, "print a parsed summary instead of the diff text")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("need two files to diff")
	}
	oldPath, newPath := fs.Arg(0), fs.Arg(1)

	oldData, err := os.ReadFile(oldPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", oldPath, err)
	}
	newData, err := os.ReadFile(newPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", newPath, err)
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(oldData)),
		B:        difflib.SplitLines(string(newData)),
		FromFile: "a/" + oldPath,
		ToFile:   "b/" + newPath,
		Context:  3,
	})
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}

	if *stat {
		printSummary(patch.Parse(text), true)
		return nil
	}
	fmt.Print(text)
	return nil
}
