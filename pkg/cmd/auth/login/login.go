package login

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quirelabs/quire/internal/state"
	"github.com/quirelabs/quire/utils"
)

func NewCmdLogin(s *state.State) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the sync access token.",
		Long: heredoc.Doc(`
			Prompts for the sync server credentials, exchanges them for an
			access token, and stores the token in the config. The sync endpoint
			must be set in the config first.
		`),
		Example: "quire auth login",
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.Config.Sync.Endpoint == "" {
				return fmt.Errorf("no sync endpoint configured, run 'quire init' first")
			}
			if s.Config.Sync.Token != "" {
				if _, err := utils.GetClaims(s.Config.Sync.Token, s.Config.Sync.Secret); err == nil {
					fmt.Println("Already logged in. Run 'quire auth logout' to switch accounts.")
					return nil
				}
			}
			return run(s)
		},
	}
}

func run(s *state.State) error {
	email, password, err := promptCredentials()
	if err != nil {
		return err
	}

	token, err := requestToken(s.Config.Sync.Endpoint, email, password)
	if err != nil {
		return err
	}

	if err := s.Config.ChangeToken(token); err != nil {
		return err
	}

	fmt.Println("Logged in.")
	return nil
}

func promptCredentials() (string, string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", "", fmt.Errorf("login needs an interactive terminal")
	}

	fmt.Print("Email: ")
	reader := bufio.NewReader(os.Stdin)
	email, err := reader.ReadString('\n')
	if err != nil {
		return "", "", err
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(email), string(password), nil
}

func requestToken(endpoint, email, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(
		endpoint+"/v1/auth/login",
		"application/json",
		bytes.NewBuffer(payload),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var respData map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", err
	}

	token, ok := respData["token"]
	if !ok || token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return token, nil
}
