// Command helixfix round-trips a signed snapshot through a human-editable
// textual form for repair.
//
//	helixfix export save.hlx   # writes save.hlx.json (indented JSON)
//	helixfix import save.hlx   # reads save.hlx.json, re-seals save.hlx
//
// Export verifies the envelope before rendering. Import recovers the type
// digest from the existing file's header, so the repaired snapshot stays
// bound to the type that wrote it.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/helixsave/helix/codec"
	"github.com/helixsave/helix/durable"
	"github.com/helixsave/helix/envelope"
	"github.com/helixsave/helix/format"
	"github.com/helixsave/helix/keystore"
)

const textSuffix = ".json"

var (
	machine    = pflag.Bool("machine", false, "use the per-install machine key instead of the global key")
	noBackup   = pflag.Bool("no-backup", false, "do not keep the previous contents at the .bak sibling on import")
	noCompress = pflag.Bool("no-compress", false, "store the imported payload uncompressed")
	verbose    = pflag.BoolP("verbose", "v", false, "log progress")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: helixfix [flags] export|import <file>\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	args := pflag.Args()
	if len(args) != 2 {
		pflag.Usage()
		os.Exit(2)
	}
	verb, path := args[0], args[1]

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}
	defer logger.Sync()

	var err error
	switch verb {
	case "export":
		err = export(path, logger)
	case "import":
		err = importFile(path, logger)
	default:
		pflag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "helixfix: %s %s: %v\n", verb, path, err)
		os.Exit(1)
	}
}

// export verifies the envelope at path and writes its payload as indented
// JSON alongside it.
func export(path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	hdr, err := envelope.ParseHeader(data)
	if err != nil {
		return err
	}

	key, err := keystore.Select(!*machine)
	if err != nil {
		return err
	}

	// The file's own digest is the expected digest here: export repairs
	// content, it does not retype it.
	payload, flags, _, err := envelope.Decode(data, hdr.TypeDigest, key)
	if err != nil {
		return err
	}

	var v any
	if err := codec.Unmarshal(payload, &v, codec.CompressionFor(flags)); err != nil {
		return err
	}

	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	text = append(text, '\n')

	out := path + textSuffix
	if err := os.WriteFile(out, text, 0o644); err != nil {
		return err
	}

	logger.Info("exported snapshot",
		zap.String("from", path), zap.String("to", out),
		zap.Time("written", hdr.TimestampAsTime()))

	return nil
}

// importFile reads the edited JSON sibling, re-encodes it, and re-seals the
// snapshot under the original file's type digest.
func importFile(path string, logger *zap.Logger) error {
	text, err := os.ReadFile(path + textSuffix)
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(text, &v); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	hdr, err := envelope.ParseHeader(data)
	if err != nil {
		return err
	}

	compression := format.CompressionLZ4
	flags := format.FlagCompressed
	if *noCompress {
		compression = format.CompressionNone
		flags = 0
	}

	payload, err := codec.Marshal(v, compression)
	if err != nil {
		return err
	}

	key, err := keystore.Select(!*machine)
	if err != nil {
		return err
	}

	env, err := envelope.Encode(hdr.TypeDigest, payload, flags, key)
	if err != nil {
		return err
	}

	if err := durable.WriteFile(path, env, !*noBackup); err != nil {
		return err
	}

	logger.Info("imported snapshot",
		zap.String("from", path+textSuffix), zap.String("to", path),
		zap.Int("bytes", len(env)))

	return nil
}
