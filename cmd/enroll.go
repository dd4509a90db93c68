package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceauth/internal/biometric"
	"github.com/amirhossein5/faceauth/internal/enrollment"
	"github.com/amirhossein5/faceauth/internal/stream"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <user-id> <image>...",
	Short: "Enroll a user from face images",
	Long: fmt.Sprintf(`Enroll a user from JPEG images, one face sample per image. Images
without a face are skipped; enrollment needs %d usable images and any
previous enrollment of the user is replaced.`, biometric.EnrollmentQuota),
	Args: cobra.MinimumNArgs(2),
	RunE: runEnroll,
}

var enrollStatusCmd = &cobra.Command{
	Use:   "status <user-id>",
	Short: "Show the stored enrollment of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnrollStatus,
}

var enrollRemoveCmd = &cobra.Command{
	Use:   "remove <user-id>",
	Short: "Delete the stored enrollment of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnrollRemove,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	enrollCmd.AddCommand(enrollStatusCmd, enrollRemoveCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	id, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	src := stream.NewFileSource(args[1:], false)

	session, err := a.service.StartEnrollment(ctx, id, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	bar := progressbar.NewOptions(biometric.EnrollmentQuota,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(session.Instruction()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("samples"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	skipped := 0
	for session.State().Phase == enrollment.PhaseAwaitingSample {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		_, err = session.Capture(ctx, frame)
		switch {
		case errors.Is(err, biometric.ErrNoFaceDetected), errors.Is(err, biometric.ErrDimensionMismatch):
			skipped++
			continue
		case err != nil:
			return err
		}

		_ = bar.Add(1)
		bar.Describe(session.Instruction())
	}
	_ = bar.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())

	if err := session.Finish(ctx); err != nil {
		if errors.Is(err, biometric.ErrIncompleteEnrollment) {
			return fmt.Errorf("%w (%d images without a usable face)", err, skipped)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Enrolled user %d with %d samples (%d images skipped)\n",
		id, biometric.EnrollmentQuota, skipped)
	return nil
}

func runEnrollStatus(cmd *cobra.Command, args []string) error {
	id, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.service.Enrollment(cmd.Context(), id)
	if err != nil {
		return err
	}

	if !info.Enrolled {
		fmt.Fprintf(cmd.OutOrStdout(), "User %d is not enrolled\n", id)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "User %d enrolled at %s with %d samples\n",
		id, info.EnrolledAt.Format("2006-01-02 15:04:05"), info.Samples)

	eligible, err := a.store.IsEligible(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !eligible {
		fmt.Fprintln(cmd.OutOrStdout(), "User is blocked; face login is refused")
	}
	return nil
}

func runEnrollRemove(cmd *cobra.Command, args []string) error {
	id, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.RemoveEnrollment(cmd.Context(), id); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed enrollment of user %d\n", id)
	return nil
}
