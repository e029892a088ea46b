package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/config"
	"github.com/z0z0r4/bilibili-api/logger"
	"github.com/z0z0r4/bilibili-api/login"
)

// SMS login: send the code (needs a solved Geetest challenge), read the
// received code from stdin, exchange it for a credential.
func main() {
	phone := flag.String("phone", "", "phone number, dashes allowed")
	region := flag.String("region", "+86", "region name or dialing code")
	gtToken := flag.String("gt-token", "", "geetest token")
	gtChallenge := flag.String("gt-challenge", "", "geetest challenge")
	gtValidate := flag.String("gt-validate", "", "geetest validate")
	gtSeccode := flag.String("gt-seccode", "", "geetest seccode")
	outPath := flag.String("out", "credential.json", "where to save the credential")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Init(*level, true)

	if *phone == "" {
		logger.Log.Fatal().Msg("usage: sms_login -phone <number> [-region +86] -gt-token .. -gt-challenge .. -gt-validate .. -gt-seccode ..")
	}

	number, err := login.NewPhoneNumber(*phone, *region)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("region", *region).Msg("bad phone region")
	}

	cli := client.New(config.NewConfig())
	geetest := &login.GeetestResult{
		Token:     *gtToken,
		Challenge: *gtChallenge,
		Validate:  *gtValidate,
		Seccode:   *gtSeccode,
	}

	captchaKey, err := login.SendSMSCode(cli, number, geetest)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to send SMS code")
	}
	logger.Log.Info().Str("phone", number.String()).Msg("code sent")

	fmt.Print("Enter the SMS code: ")
	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to read code")
	}
	code = strings.TrimSpace(code)

	cred, err := login.LoginWithSMS(cli, number, code, captchaKey)
	if err != nil {
		if errors.Is(err, login.ErrVerifyQRCodeRequired) {
			logger.Log.Fatal().Msg("account requires QR verification, use qr_login instead")
		}
		logger.Log.Fatal().Err(err).Msg("login failed")
	}

	if err := cred.Save(*outPath); err != nil {
		logger.Log.Fatal().Err(err).Str("path", *outPath).Msg("failed to save credential")
	}
	logger.Log.Info().Str("DedeUserID", cred.DedeUserID).Str("path", *outPath).Msg("login done, credential saved")
}
