package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/urfave/cli/v2"
)

var ErrNoAuthSession = errors.New("no auth session found")

const authSessionPath = "botweet/auth-session.json"

type AuthSession struct {
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`
	ConsumerKey  string `json:"consumer_key"`
}

var cmdLogin = &cli.Command{
	Name:   "login",
	Usage:  "authorize the bot account with a PIN and save the session",
	Action: runLogin,
}

var cmdLogout = &cli.Command{
	Name:   "logout",
	Usage:  "delete the saved session",
	Action: runLogout,
}

func runLogin(cctx *cli.Context) error {
	logger := configLogger(cctx, os.Stderr)
	cfg, err := loadConfig(cctx)
	if err != nil {
		return err
	}
	// always run the flow, even if a session exists
	cfg.AccessToken = ""
	cfg.AccessSecret = ""

	b, err := newBotFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	if err := b.Authorize(os.Stdin, os.Stdout); err != nil {
		return err
	}

	creds := b.Credentials()
	if err := persistAuthSession(&AuthSession{
		AccessToken:  creds.AccessToken,
		AccessSecret: creds.AccessSecret,
		ConsumerKey:  creds.ConsumerKey,
	}); err != nil {
		return err
	}
	fmt.Println("login successful")
	return nil
}

func runLogout(cctx *cli.Context) error {
	return wipeAuthSession()
}

func persistAuthSession(sess *AuthSession) error {

	fPath, err := xdg.StateFile(authSessionPath)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(fPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	authBytes, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	_, err = f.Write(authBytes)
	return err
}

func loadAuthSession() (*AuthSession, error) {
	fPath, err := xdg.SearchStateFile(authSessionPath)
	if err != nil {
		return nil, ErrNoAuthSession
	}

	fBytes, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}

	var sess AuthSession
	if err := json.Unmarshal(fBytes, &sess); err != nil {
		return nil, fmt.Errorf("corrupt auth session %s: %w", fPath, err)
	}
	if sess.AccessToken == "" || sess.AccessSecret == "" {
		return nil, ErrNoAuthSession
	}
	return &sess, nil
}

func wipeAuthSession() error {

	fPath, err := xdg.SearchStateFile(authSessionPath)
	if err != nil {
		fmt.Println("no auth session found (already logged out)")
		return nil
	}
	return os.Remove(fPath)
}
