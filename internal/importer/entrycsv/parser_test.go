package entrycsv_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/icpledger/internal/importer/entrycsv"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParser_Parse(t *testing.T) {
	type args struct {
		csvContent string
	}

	type testCase struct {
		name    string
		args    args
		want    []ledger.CreateParams
		wantErr string
	}

	tests := []testCase{
		{
			name: "export format",
			args: args{
				csvContent: "Date,ICP Amount,Token Value,Income\n" +
					"2024-01-05,10.00,5.00,50.00\n" +
					"2024-02-29,1.50,12.35,18.53\n",
			},
			want: []ledger.CreateParams{
				{ICPAmount: dec("10"), ICPTokenValue: dec("5"), Date: date(2024, 1, 5)},
				{ICPAmount: dec("1.5"), ICPTokenValue: dec("12.35"), Date: date(2024, 2, 29)},
			},
		},
		{
			name: "spreadsheet format with comma decimals",
			args: args{
				csvContent: "Income report;\n" +
					"\n" +
					"Date;ICP Amount;Token Value\n" +
					"05-01-2024;1.234,5;7,25\n" +
					"06/01/2024;2;8\n" +
					"Total;;\n",
			},
			want: []ledger.CreateParams{
				{ICPAmount: dec("1234.5"), ICPTokenValue: dec("7.25"), Date: date(2024, 1, 5)},
				{ICPAmount: dec("2"), ICPTokenValue: dec("8"), Date: date(2024, 1, 6)},
			},
		},
		{
			name: "different column order and case",
			args: args{
				csvContent: "token value,Note,DATE,icp amount\n" +
					"3.5,\"first, paid late\",2024-03-01,\"1,000\"\n",
			},
			want: []ledger.CreateParams{
				{ICPAmount: dec("1000"), ICPTokenValue: dec("3.5"), Date: date(2024, 3, 1)},
			},
		},
		{
			name: "header only",
			args: args{
				csvContent: "Date,ICP Amount,Token Value,Income\n",
			},
			want: nil,
		},
		{
			name: "invalid amount",
			args: args{
				csvContent: "Date,ICP Amount,Token Value\n" +
					"2024-01-05,ten,5\n",
			},
			wantErr: "row 2: invalid ICP amount",
		},
		{
			name: "invalid token value",
			args: args{
				csvContent: "Date,ICP Amount,Token Value\n" +
					"2024-01-05,1,\n",
			},
			wantErr: "row 2: invalid token value",
		},
		{
			name: "date beyond the storable range",
			args: args{
				csvContent: "Date,ICP Amount,Token Value\n" +
					"2024-01-05,1,5\n" +
					"2300-01-01,1,5\n",
			},
			wantErr: "row 3: invalid input",
		},
		{
			name: "unknown layout",
			args: args{
				csvContent: "Data mov.;Descrição;Montante\n30-01-2026;TEST;-10,00\n",
			},
			wantErr: "no matching entry CSV format",
		},
		{
			name: "empty file",
			args: args{
				csvContent: "",
			},
			wantErr: "no matching entry CSV format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := entrycsv.NewParser().Parse(strings.NewReader(tt.args.csvContent))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Len(t, got, len(tt.want))

			for i := range tt.want {
				assert.True(t, tt.want[i].ICPAmount.Equal(got[i].ICPAmount), "row %d amount: %s", i, got[i].ICPAmount)
				assert.True(t, tt.want[i].ICPTokenValue.Equal(got[i].ICPTokenValue), "row %d value: %s", i, got[i].ICPTokenValue)
				assert.Equal(t, tt.want[i].Date, got[i].Date)
				assert.Zero(t, got[i].PersonID)
			}
		})
	}
}

func TestParser_Latin1Encoding(t *testing.T) {
	utf8CSV := "Observação;Date;ICP Amount;Token Value\nCafé;2024-01-05;1,5;10\n"

	latin1Bytes, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	got, err := entrycsv.NewParser().Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.True(t, dec("1.5").Equal(got[0].ICPAmount))
}
