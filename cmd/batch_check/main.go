package main

import (
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/z0z0r4/bilibili-api/client"
	"github.com/z0z0r4/bilibili-api/config"
	"github.com/z0z0r4/bilibili-api/internal/accountprocessor"
	"github.com/z0z0r4/bilibili-api/logger"
	"github.com/z0z0r4/bilibili-api/login"
)

// Batch credential check: read credentials from an Excel sheet, verify each
// one against the nav endpoint, write valid/invalid workbooks.
//
// Input sheet layout (first row is a header):
//
//	A: DedeUserID  B: SESSDATA  C: bili_jct  D: ac_time_value
type checkResult struct {
	cred  *login.Credential
	alive bool
	err   error
}

func main() {
	inPath := flag.String("in", "credentials.xlsx", "input workbook")
	sheet := flag.String("sheet", "Sheet1", "sheet name")
	validPath := flag.String("valid-out", "valid.xlsx", "workbook for live credentials")
	invalidPath := flag.String("invalid-out", "invalid.xlsx", "workbook for dead credentials")
	workers := flag.Int("workers", 4, "concurrent checks")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger.Init(*level, true)

	creds, err := readCredentials(*inPath, *sheet)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", *inPath).Msg("failed to read input workbook")
	}
	if len(creds) == 0 {
		logger.Log.Fatal().Msg("input workbook has no credential rows")
	}

	proc := accountprocessor.New()
	for _, c := range creds {
		proc.Add(c.DedeUserID)
	}

	cli := client.New(config.NewConfig())

	jobs := make(chan *login.Credential)
	results := make(chan checkResult)

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for cred := range jobs {
				proc.MarkProcessing(cred.DedeUserID)
				alive, err := login.CheckCredential(cli, cred)
				if err != nil || !alive {
					proc.MarkInvalid(cred.DedeUserID)
				} else {
					proc.MarkValid(cred.DedeUserID)
				}
				results <- checkResult{cred: cred, alive: alive, err: err}
				// Stay polite with the nav endpoint.
				time.Sleep(200 * time.Millisecond)
			}
		}()
	}

	go func() {
		for _, c := range creds {
			jobs <- c
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var valid, invalid []checkResult
	for r := range results {
		if r.err != nil {
			logger.Log.Warn().Err(r.err).Str("DedeUserID", r.cred.DedeUserID).Msg("check failed")
			invalid = append(invalid, r)
			continue
		}
		if r.alive {
			logger.Log.Info().Str("DedeUserID", r.cred.DedeUserID).Msg("credential is live")
			valid = append(valid, r)
		} else {
			logger.Log.Info().Str("DedeUserID", r.cred.DedeUserID).Msg("credential is dead")
			invalid = append(invalid, r)
		}
	}

	if err := writeResults(*validPath, valid); err != nil {
		logger.Log.Fatal().Err(err).Str("path", *validPath).Msg("failed to write workbook")
	}
	if err := writeResults(*invalidPath, invalid); err != nil {
		logger.Log.Fatal().Err(err).Str("path", *invalidPath).Msg("failed to write workbook")
	}

	sum := proc.Snapshot()
	logger.Log.Info().
		Int("total", sum.Total).
		Int("valid", sum.Valid).
		Int("invalid", sum.Invalid).
		Msg("batch check done")
}

func readCredentials(path, sheet string) ([]*login.Credential, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	var creds []*login.Credential
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		cred := &login.Credential{
			DedeUserID: row[0],
			SESSDATA:   row[1],
			BiliJct:    row[2],
		}
		if len(row) > 3 {
			cred.AcTimeValue = row[3]
		}
		if !cred.IsComplete() {
			logger.Log.Warn().Int("row", i+1).Msg("skipping incomplete row")
			continue
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

func writeResults(path string, results []checkResult) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	header := []string{"DedeUserID", "SESSDATA", "bili_jct", "ac_time_value", "status"}
	for i, h := range header {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue(sheet, col+"1", h); err != nil {
			return err
		}
	}

	for i, r := range results {
		status := "valid"
		if r.err != nil {
			status = fmt.Sprintf("error: %v", r.err)
		} else if !r.alive {
			status = "invalid"
		}
		values := []string{r.cred.DedeUserID, r.cred.SESSDATA, r.cred.BiliJct, r.cred.AcTimeValue, status}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, i+2), v); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}
