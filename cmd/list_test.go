package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jjenkins/billtracker/internal/model"
)

var sessionBills = []model.ListedBill{
	{Billno: "HB1", Title: "FEED BILL", URL: "https://www.nmlegis.gov/Legislation/Legislation?chamber=H&legtype=B&legno=1&year=25"},
	{Billno: "SJM4", Title: "STUDY WATER RIGHTS", URL: "https://www.nmlegis.gov/Legislation/Legislation?chamber=S&legtype=JM&legno=4&year=25"},
}

func TestWriteBillListText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeBillList(&out, sessionBills, "text"))
	assert.Equal(t, "HB1      FEED BILL\nSJM4     STUDY WATER RIGHTS\n", out.String())
}

func TestWriteBillListJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeBillList(&out, sessionBills, "json"))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "SJM4", got[1]["billno"])
	assert.Equal(t, sessionBills[1].URL, got[1]["url"])
}

func TestWriteBillListYAML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeBillList(&out, sessionBills, "yaml"))

	var got []map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "FEED BILL", got[0]["title"])

	assert.ErrorContains(t, writeBillList(&out, sessionBills, "csv"), "unknown format")
}
