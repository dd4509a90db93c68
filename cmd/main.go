package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceauth/internal/biometric"
)

var rootCmd = &cobra.Command{
	Use:   "faceauth",
	Short: "Face enrollment and face login for the farm",
	Long: `faceauth enrolls users from a camera or image files and recognizes
them at login. Configuration is read from FACEAUTH_* environment
variables and an optional .env file.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

func parseUserID(s string) (biometric.UserID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return biometric.UserID(id), nil
}
