package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/synclog/internal/config"
	"github.com/alfredjeanlab/synclog/internal/transport"
)

var publishCmd = &cobra.Command{
	Use:   "publish <stream> <value>",
	Short: "Publish a value on a stream's subject",
	Long: `Publish a value on a stream's subject.

By default the value is wrapped as {"data": <value>}, which is the shape the
daemon extracts. Use --raw to send the value bytes unchanged.`,
	GroupID:           "streams",
	Args:              cobra.ExactArgs(2),
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		count, _ := cmd.Flags().GetInt("count")
		interval, _ := cmd.Flags().GetDuration("interval")
		natsURL, _ := cmd.Flags().GetString("nats-url")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if natsURL == "" {
			natsURL = cfg.NATSURL
		}
		if natsURL == "" {
			return fmt.Errorf("no NATS server (set --nats-url or SYNCLOG_NATS_URL)")
		}

		payload, err := encodeValue(args[1], raw)
		if err != nil {
			return err
		}

		t, err := transport.NewNATS(natsURL)
		if err != nil {
			return err
		}
		defer t.Close()

		subject := cfg.SubjectPrefix + args[0]
		for i := 0; i < count; i++ {
			if i > 0 && interval > 0 {
				time.Sleep(interval)
			}
			if err := t.Publish(subject, payload); err != nil {
				return err
			}
		}
		if err := t.Flush(); err != nil {
			return fmt.Errorf("flushing: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published %d message(s) to %s\n", count, subject)
		return nil
	},
}

func init() {
	publishCmd.Flags().Bool("raw", false, "send the value unchanged")
	publishCmd.Flags().Int("count", 1, "number of messages to send")
	publishCmd.Flags().Duration("interval", 0, "delay between messages")
	publishCmd.Flags().String("nats-url", "", "NATS server URL (default from config)")
}

// encodeValue builds the message payload for value.
func encodeValue(value string, raw bool) ([]byte, error) {
	if raw {
		return []byte(value), nil
	}
	data, err := json.Marshal(map[string]string{"data": value})
	if err != nil {
		return nil, fmt.Errorf("encoding value: %w", err)
	}
	return data, nil
}
