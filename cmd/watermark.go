package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mholdt/mail-archiver/watermark"
)

var (
	stateSpec    string
	watermarkKey string
)

// NewWatermarkCmd returns the operator command for inspecting and
// repairing the stored archive checkpoint.
func NewWatermarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watermark",
		Short: "Inspect or repair the stored archive watermark",
	}

	cmd.PersistentFlags().StringVar(&stateSpec, "state", "", "Watermark location: file path, sqlite://path or postgres://dsn")
	cmd.PersistentFlags().StringVar(&watermarkKey, "watermark-key", watermark.DefaultKey, "Property name of the stored watermark")
	_ = cmd.MarkPersistentFlagRequired("state")

	cmd.AddCommand(newWatermarkGetCmd(), newWatermarkSetCmd(), newWatermarkClearCmd())
	return cmd
}

func openStore() (watermark.Store, error) {
	return watermark.Open(stateSpec)
}

func newWatermarkGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the stored watermark",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			marks, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = marks.Close()
			}()

			value, ok, err := marks.Get(cmd.Context(), watermarkKey)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no watermark stored")
				return nil
			}

			epoch, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("stored watermark %q is not an epoch value: %w", value, err)
			}
			fmt.Printf("%d (%s)\n", epoch, time.Unix(epoch, 0).Format(time.RFC3339))
			return nil
		},
	}
}

func newWatermarkSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <epoch-seconds>",
		Short: "Overwrite the stored watermark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			epoch, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("watermark must be epoch seconds: %w", err)
			}

			marks, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = marks.Close()
			}()

			if err := marks.Set(cmd.Context(), watermarkKey, strconv.FormatInt(epoch, 10)); err != nil {
				return err
			}
			fmt.Printf("watermark set to %d (%s)\n", epoch, time.Unix(epoch, 0).Format(time.RFC3339))
			return nil
		},
	}
}

func newWatermarkClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored watermark so the next run starts from the initial value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			marks, err := openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = marks.Close()
			}()

			if err := marks.Delete(cmd.Context(), watermarkKey); err != nil {
				return err
			}
			fmt.Println("watermark cleared")
			return nil
		},
	}
}
