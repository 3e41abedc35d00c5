// Command h323trace decodes a single H.225.0/H.245 PDU from a file and
// prints an event-sink trace of the decode, the way a developer would use
// the codec library to inspect traffic captured off the wire. It carries
// no call-signaling logic of its own — everything it knows comes from
// lib/h225, lib/h245 and lib/config.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/h323go/stack/lib/config"
	"github.com/h323go/stack/lib/h225"
	"github.com/h323go/stack/lib/h245"
)

func main() {
	var (
		configPath string
		hexInput   bool
		logLevel   string
	)

	root := &cobra.Command{
		Use:   "h323trace",
		Short: "Decode an H.323 PDU and print a structured trace",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "optional config file (viper-readable)")
	root.PersistentFlags().BoolVar(&hexInput, "hex", false, "treat the input file's contents as hex text rather than raw bytes")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	loadOpts := func() (config.Options, *logrus.Logger, error) {
		opts, err := config.Load(configPath)
		if err != nil {
			return config.Options{}, nil, err
		}
		if logLevel != "" {
			opts.LogLevel = logLevel
		}
		log := logrus.New()
		level, err := logrus.ParseLevel(opts.LogLevel)
		if err != nil {
			level = logrus.InfoLevel
		}
		log.SetLevel(level)
		return opts, log, nil
	}

	readPDU := func(path string) ([]byte, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if hexInput {
			text := strings.Join(strings.Fields(string(raw)), "")
			decoded, err := hex.DecodeString(text)
			if err != nil {
				return nil, fmt.Errorf("decoding hex in %s: %w", path, err)
			}
			return decoded, nil
		}
		return raw, nil
	}

	decodeRasCmd := &cobra.Command{
		Use:   "decode-ras [pdu-file]",
		Short: "Decode a RasMessage PDU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, log, err := loadOpts()
			if err != nil {
				return err
			}
			data, err := readPDU(args[0])
			if err != nil {
				return err
			}
			d := h225.NewDecoderWithOptions(data, true, opts.CodecOptions())
			d.AttachEventSink(newTraceSink(log))
			msg, err := d.DecodeRasMessage()
			if err != nil {
				return fmt.Errorf("decode RasMessage: %w", err)
			}
			fmt.Printf("RasMessage: kind=%d fromExtension=%v seq=%d\n", msg.Kind, msg.FromExtension, msg.RequestSeqNum)
			return nil
		},
	}

	decodeUUIECmd := &cobra.Command{
		Use:   "decode-uuie [pdu-file]",
		Short: "Decode an H323_UU_PDU call-signaling PDU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, log, err := loadOpts()
			if err != nil {
				return err
			}
			data, err := readPDU(args[0])
			if err != nil {
				return err
			}
			d := h225.NewDecoderWithOptions(data, true, opts.CodecOptions())
			d.AttachEventSink(newTraceSink(log))
			info, err := d.DecodeH323UserInformation()
			if err != nil {
				return fmt.Errorf("decode H323UserInformation: %w", err)
			}
			fmt.Printf("H323_UU_PDU: kind=%d fastStart=%d h245Control=%d\n",
				info.PDU.Kind, len(info.PDU.FastStart), len(info.PDU.H245Control))
			return nil
		},
	}

	decodeH245Cmd := &cobra.Command{
		Use:   "decode-h245 [pdu-file]",
		Short: "Decode a MultimediaSystemControlMessage PDU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, log, err := loadOpts()
			if err != nil {
				return err
			}
			data, err := readPDU(args[0])
			if err != nil {
				return err
			}
			d := h245.NewDecoderWithOptions(data, true, opts.CodecOptions())
			d.AttachEventSink(newTraceSink(log))
			msg, err := d.DecodeMultimediaSystemControlMessage()
			if err != nil {
				return fmt.Errorf("decode MultimediaSystemControlMessage: %w", err)
			}
			fmt.Printf("MultimediaSystemControlMessage: kind=%d fromExtension=%v\n", msg.Kind, msg.FromExtension)
			return nil
		},
	}

	root.AddCommand(decodeRasCmd, decodeUUIECmd, decodeH245Cmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
