package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/config"
	"github.com/z0z0r4/bilibili-api/logger"
	"github.com/z0z0r4/bilibili-api/login"
)

// Password login needs a solved Geetest challenge. Run with -fetch-captcha
// first, solve it externally, then pass the results back in.
func main() {
	username := flag.String("username", "", "phone number or email")
	password := flag.String("password", "", "account password")
	fetchCaptcha := flag.Bool("fetch-captcha", false, "print Geetest challenge parameters and exit")
	gtToken := flag.String("gt-token", "", "geetest token from fetch-captcha")
	gtChallenge := flag.String("gt-challenge", "", "geetest challenge")
	gtValidate := flag.String("gt-validate", "", "geetest validate from the solver")
	gtSeccode := flag.String("gt-seccode", "", "geetest seccode from the solver")
	outPath := flag.String("out", "credential.json", "where to save the credential")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Init(*level, true)
	cli := client.New(config.NewConfig())

	if *fetchCaptcha {
		ch, err := login.FetchCaptcha(cli)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("failed to fetch captcha")
		}
		fmt.Printf("token:     %s\n", ch.Token)
		fmt.Printf("gt:        %s\n", ch.GT)
		fmt.Printf("challenge: %s\n", ch.Challenge)
		fmt.Println("Solve the challenge externally, then rerun with -gt-* flags.")
		return
	}

	if *username == "" || *password == "" {
		logger.Log.Fatal().Msg("usage: password_login -username <u> -password <p> -gt-token .. -gt-challenge .. -gt-validate .. -gt-seccode ..")
	}

	geetest := &login.GeetestResult{
		Token:     *gtToken,
		Challenge: *gtChallenge,
		Validate:  *gtValidate,
		Seccode:   *gtSeccode,
	}
	cred, err := login.LoginWithPassword(cli, *username, *password, geetest)
	if err != nil {
		if errors.Is(err, login.ErrVerifyPhoneRequired) {
			logger.Log.Fatal().Msg("account requires SMS verification, use sms_login instead")
		}
		logger.Log.Fatal().Err(err).Msg("login failed")
	}

	if err := cred.Save(*outPath); err != nil {
		logger.Log.Fatal().Err(err).Str("path", *outPath).Msg("failed to save credential")
	}
	logger.Log.Info().Str("DedeUserID", cred.DedeUserID).Str("path", *outPath).Msg("login done, credential saved")
}
