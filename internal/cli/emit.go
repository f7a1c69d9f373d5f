package cli

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sarnezclutch/sioemit/internal/logger"
	"github.com/sarnezclutch/sioemit/pkg/pubsub"
	"github.com/sarnezclutch/sioemit/pkg/sio"
	"github.com/sarnezclutch/sioemit/pkg/sio/parser"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type emitFlags struct {
	rooms     []string
	nsp       string
	json      bool
	volatile  bool
	broadcast bool
	data      string
	binary    bool
	dryRun    bool
}

// NewEmitCommand publishes one event. Rooms are selected in flag order,
// followed by the namespace.
func NewEmitCommand() *cobra.Command {
	f := &emitFlags{}

	cmd := &cobra.Command{
		Use:   "emit EVENT [ARGS...]",
		Short: "Publish one event",
		Example: `  sioemit emit update a b
  sioemit emit --to room1 --to room2 --of chat --data '{"x":1}' msg
  sioemit emit --binary < blob.bin`,
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case f.binary && len(args) > 0:
				return errors.New("--binary takes no arguments; the payload is read from stdin")
			case f.binary && f.data != "":
				return errors.New("--binary and --data are mutually exclusive")
			case !f.binary && len(args) == 0:
				return errors.New("missing EVENT")
			case f.data != "" && len(args) > 1:
				return errors.New("--data takes the event name only")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&f.rooms, "to", "t", nil, "Room to emit to (repeatable; --in is an alias)")
	flags.StringVar(&f.nsp, "of", "", "Namespace to emit to (default /)")
	flags.BoolVar(&f.json, "json", false, "Set the json flag")
	flags.BoolVar(&f.volatile, "volatile", false, "Set the volatile flag")
	flags.BoolVar(&f.broadcast, "broadcast", false, "Set the broadcast flag")
	flags.StringVar(&f.data, "data", "", "Emit a JSON value instead of string arguments")
	flags.BoolVar(&f.binary, "binary", false, "Emit stdin as a binary payload")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Do not connect; print the topic and packet instead")
	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "in" {
			name = "to"
		}
		return pflag.NormalizedName(name)
	})

	return cmd
}

func runEmit(cmd *cobra.Command, args []string, f *emitFlags) error {
	ctx := cmd.Context()

	o, lcfg, err := resolveOptions(cmd.Flags())
	if err != nil {
		return err
	}
	log := logger.New(cmd.ErrOrStderr(), lcfg)

	var (
		e   *sio.Emitter
		bus *pubsub.Memory
	)
	if f.dryRun {
		bus = pubsub.NewMemory()
		e, err = sio.New(bus, sio.WithKey(o.Key), sio.WithLogger(log))
	} else {
		e, err = sio.Dial(ctx, o, sio.WithLogger(log))
	}
	if err != nil {
		return err
	}
	defer e.Close()

	s := e.Selector()
	for _, room := range f.rooms {
		s = s.To(room)
	}
	if cmd.Flags().Changed("of") {
		s = s.Of(f.nsp)
	}
	if f.json {
		s = s.JSON()
	}
	if f.volatile {
		s = s.Volatile()
	}
	if f.broadcast {
		s = s.Broadcast()
	}

	var msgs <-chan pubsub.Message
	if bus != nil {
		ch, cancel := bus.Subscribe(s.Topic(), 1)
		defer cancel()
		msgs = ch
	}

	var emitErr error
	switch {
	case f.binary:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		emitErr = s.EmitBinary(ctx, data)
	case f.data != "":
		var value any
		if err := json.Unmarshal([]byte(f.data), &value); err != nil {
			return fmt.Errorf("invalid --data: %w", err)
		}
		emitErr = s.EmitJSON(ctx, args[0], value)
	default:
		emitErr = s.Emit(ctx, args[0], args[1:]...)
	}
	if emitErr != nil {
		return emitErr
	}

	out := cmd.OutOrStdout()
	if msgs == nil {
		_, err = fmt.Fprintf(out, "published to %s\n", s.Topic())
		return err
	}

	msg := <-msgs
	var p parser.Packet
	if err := parser.Msgpack.Decode(msg.Payload, &p); err != nil {
		return fmt.Errorf("decode packet: %w", err)
	}
	rendered, err := parser.JSONCodec.Encode(&p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s %s\n", msg.Topic, rendered)
	return err
}
