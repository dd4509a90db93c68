package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <image>",
	Short: "Recognize the face in an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

func runIdentify(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	decision, err := a.service.Authenticate(cmd.Context(), biometric.NewFrame(data))
	if errors.Is(err, biometric.ErrNoFaceDetected) {
		fmt.Fprintln(cmd.OutOrStdout(), "No face found in the image")
		return nil
	}
	if err != nil {
		return err
	}

	if !decision.Recognized {
		fmt.Fprintf(cmd.OutOrStdout(), "Not recognized (closest distance %.4f, %d candidates)\n",
			decision.Distance, decision.Considered)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recognized user %d (distance %.4f)\n", decision.UserID, decision.Distance)
	return nil
}
