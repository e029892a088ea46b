package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mdp/qrterminal/v3"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/config"
	"github.com/z0z0r4/bilibili-api/logger"
	"github.com/z0z0r4/bilibili-api/login"
)

func main() {
	channel := flag.String("channel", "web", "login channel: web or tv")
	pngPath := flag.String("png", "", "also write the QR code to this PNG file")
	outPath := flag.String("out", "credential.json", "where to save the credential")
	interval := flag.Duration("interval", 2*time.Second, "poll interval")
	timeout := flag.Duration("timeout", 3*time.Minute, "give up after this long")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Init(*level, true)

	var ch login.QRChannel
	switch *channel {
	case "web":
		ch = login.ChannelWeb
	case "tv":
		ch = login.ChannelTV
	default:
		logger.Log.Fatal().Str("channel", *channel).Msg("channel must be web or tv")
	}

	cli := client.New(config.NewConfig())
	qr := login.NewQRLogin(cli, ch)
	if err := qr.Generate(); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to generate QR code")
	}

	qrURL, _ := qr.URL()
	if *pngPath != "" {
		if err := qrcode.WriteFile(qrURL, qrcode.Medium, 256, *pngPath); err != nil {
			logger.Log.Fatal().Err(err).Str("path", *pngPath).Msg("failed to write QR PNG")
		}
		logger.Log.Info().Str("path", *pngPath).Msg("QR code written")
	}
	qrterminal.GenerateHalfBlock(qrURL, qrterminal.L, os.Stdout)
	fmt.Println("Scan with the Bilibili app and confirm.")

	deadline := time.Now().Add(*timeout)
	for time.Now().Before(deadline) {
		state, err := qr.Poll()
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("poll failed")
		}
		switch state {
		case login.StateConfirm:
			logger.Log.Info().Msg("scanned, waiting for confirmation")
		case login.StateExpired:
			logger.Log.Fatal().Msg("QR code expired, run again")
		case login.StateDone:
			cred, err := qr.Credential()
			if err != nil {
				logger.Log.Fatal().Err(err).Msg("no credential after done state")
			}
			if err := cred.Save(*outPath); err != nil {
				logger.Log.Fatal().Err(err).Str("path", *outPath).Msg("failed to save credential")
			}
			logger.Log.Info().
				Str("DedeUserID", cred.DedeUserID).
				Str("path", *outPath).
				Msg("login done, credential saved")
			return
		}
		time.Sleep(*interval)
	}
	logger.Log.Fatal().Msg("timed out waiting for the scan")
}
