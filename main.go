package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mdp/qrterminal/v3"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/config"
	"github.com/z0z0r4/bilibili-api/logger"
	"github.com/z0z0r4/bilibili-api/login"
)

// Interactive web QR login: render the code in the terminal, wait for the
// scan, print the credential. The cmd/ tools cover the other flows.
func main() {
	logger.Init("info", true)

	cfg := config.NewConfig()
	cli := client.New(cfg)

	qr := login.NewQRLogin(cli, login.ChannelWeb)
	if err := qr.Generate(); err != nil {
		logger.Log.Error().Err(err).Msg("failed to generate QR code")
		os.Exit(1)
	}

	qrURL, _ := qr.URL()
	qrterminal.GenerateWithConfig(qrURL, qrterminal.Config{
		Level:     qrterminal.L,
		Writer:    os.Stdout,
		BlackChar: qrterminal.BLACK,
		WhiteChar: qrterminal.WHITE,
		QuietZone: 1,
	})
	fmt.Println("Scan the QR code with the Bilibili app, then confirm the login.")

	for {
		state, err := qr.Poll()
		if err != nil {
			logger.Log.Error().Err(err).Msg("poll failed")
			os.Exit(1)
		}
		switch state {
		case login.StateScan:
			// keep waiting
		case login.StateConfirm:
			logger.Log.Info().Msg("scanned, waiting for confirmation")
		case login.StateExpired:
			logger.Log.Error().Msg("QR code expired, run again")
			os.Exit(1)
		case login.StateDone:
			cred, err := qr.Credential()
			if err != nil {
				logger.Log.Error().Err(err).Msg("no credential after done state")
				os.Exit(1)
			}
			fmt.Println("\n=== CREDENTIAL ===")
			fmt.Printf("DedeUserID:    %s\n", cred.DedeUserID)
			fmt.Printf("SESSDATA:      %s\n", cred.SESSDATA)
			fmt.Printf("bili_jct:      %s\n", cred.BiliJct)
			fmt.Printf("ac_time_value: %s\n", cred.AcTimeValue)
			return
		}
		time.Sleep(2 * time.Second)
	}
}
