// respconv converts documents between JSON, CBOR, MessagePack or a
// protobuf Value and RESP, and prints RESP frame trees for inspection.
//
//	respconv encode [--format json] [file]   document -> RESP
//	respconv decode [--format json] [file]   RESP -> document
//	respconv inspect [file]                  RESP frame tree, indented
//
// Input is read from file, or stdin when file is omitted or "-".
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/resp"
	"github.com/unkn0wn-root/resp/codec"
	logzap "github.com/unkn0wn-root/resp/log/zap"
)

const defaultMaxInput = 64 << 20

// usageError marks failures caused by how respconv was invoked.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "respconv: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

type options struct {
	format   string
	maxInput int
	maxDepth int
	verbose  bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printHelp(stderr, nil)
		return usagef("missing command")
	}
	cmd, args := args[0], args[1:]

	var opts options
	flagSet := pflag.NewFlagSet("respconv "+cmd, pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.format, "format", "f", "json", "document format: "+strings.Join(codec.Formats, ", "))
	flagSet.IntVar(&opts.maxInput, "max-input", defaultMaxInput, "refuse input larger than this many bytes (0 = unlimited)")
	flagSet.IntVar(&opts.maxDepth, "max-depth", 0, "nesting limit when reading RESP (0 = default)")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug details to stderr")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usagef("%v", err)
	}
	if flagSet.NArg() > 1 {
		return usagef("unexpected argument: %s", flagSet.Arg(1))
	}

	switch cmd {
	case "encode", "decode", "inspect":
	case "help":
		printHelp(stdout, flagSet)
		return nil
	default:
		printHelp(stderr, flagSet)
		return usagef("unknown command %q", cmd)
	}

	logger := newLogger(stderr, opts.verbose)
	defer func() { _ = logger.Sync() }()

	raw, err := readInput(flagSet.Arg(0), stdin, opts.maxInput)
	if err != nil {
		return err
	}
	logger.Debug("read input", zap.String("command", cmd), zap.Int("bytes", len(raw)))

	switch cmd {
	case "encode":
		return encode(raw, opts, stdout)
	case "decode":
		decOpts := resp.DecodeOptions{
			MaxDepth: opts.maxDepth,
			Logger:   logzap.ZapLogger{L: logger},
		}
		return decode(raw, opts, decOpts, stdout)
	default:
		return inspect(raw, opts, stdout)
	}
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// readInput reads at most max+1 bytes so oversized input is detected
// without being buffered whole.
func readInput(path string, stdin io.Reader, max int) ([]byte, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	if max > 0 {
		r = io.LimitReader(r, int64(max)+1)
	}
	return io.ReadAll(r)
}

func documentCodec(opts options) (codec.Codec[any], error) {
	doc, err := codec.Lookup(opts.format)
	if err != nil {
		return nil, usagef("%v", err)
	}
	return codec.LimitCodec[any]{Inner: doc, MaxDecode: opts.maxInput}, nil
}

func encode(raw []byte, opts options, w io.Writer) error {
	doc, err := documentCodec(opts)
	if err != nil {
		return err
	}
	x, err := doc.Decode(raw)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.format, err)
	}
	v, err := codec.ToValue(x)
	if err != nil {
		return err
	}
	return resp.NewEncoder(w).Encode(v)
}

func decode(raw []byte, opts options, decOpts resp.DecodeOptions, w io.Writer) error {
	doc, err := documentCodec(opts)
	if err != nil {
		return err
	}
	var frames codec.Codec[resp.Value] = codec.LimitCodec[resp.Value]{
		Inner:     codec.Shaped{Shape: resp.AnyShape(), Opts: decOpts},
		MaxDecode: opts.maxInput,
	}
	v, err := frames.Decode(raw)
	if err != nil {
		return err
	}
	out, err := doc.Encode(codec.FromValue(v))
	if err != nil {
		return fmt.Errorf("write %s: %w", opts.format, err)
	}
	if opts.format == "json" {
		out = append(out, '\n')
	}
	_, err = w.Write(out)
	return err
}

// inspect prints every frame tree in the input, one node per line.
func inspect(raw []byte, opts options, w io.Writer) error {
	if opts.maxInput > 0 && len(raw) > opts.maxInput {
		return fmt.Errorf("%w: %d > %d", codec.ErrTooLarge, len(raw), opts.maxInput)
	}
	var sb strings.Builder
	for off := 0; off < len(raw); {
		f, n, err := resp.ParseFrameDepth(raw[off:], opts.maxDepth)
		if err != nil {
			var de *resp.DecodeError
			if errors.As(err, &de) {
				de.Offset += off
			}
			return err
		}
		writeFrame(&sb, f, off, 0)
		off += n
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeFrame(sb *strings.Builder, f resp.Frame, base, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	switch {
	case f.Tag == '*' && f.Null:
		sb.WriteString("null array")
	case f.Tag == '*':
		sb.WriteString("array(" + strconv.Itoa(len(f.Elems)) + ")")
	case f.Tag == '$' && f.Null:
		sb.WriteString("null")
	case f.Tag == '$':
		sb.WriteString("bulk " + strconv.Quote(string(f.Data)))
	case f.Tag == '+':
		sb.WriteString("simple " + strconv.Quote(string(f.Data)))
	case f.Tag == '-':
		sb.WriteString("error " + strconv.Quote(string(f.Data)))
	case f.Tag == ':':
		sb.WriteString("integer " + string(f.Data))
	}
	sb.WriteString(" @" + strconv.Itoa(base+f.Offset) + "\n")
	for _, e := range f.Elems {
		writeFrame(sb, e, base, depth+1)
	}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprint(w, `respconv converts documents to and from RESP.

Usage:
  respconv encode [flags] [file]   document -> RESP
  respconv decode [flags] [file]   RESP -> document
  respconv inspect [flags] [file]  print RESP frame trees

`)
	if flagSet != nil {
		fmt.Fprintln(w, "Flags:")
		fmt.Fprint(w, flagSet.FlagUsages())
	}
}
