package commands

import (
	"encoding/json"

	jww "github.com/spf13/jwalterweatherman"
)

func printJSON(data interface{}) error {
	rawData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	jww.FEEDBACK.Println(string(rawData))
	return nil
}
