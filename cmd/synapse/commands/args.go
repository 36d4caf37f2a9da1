package commands

import (
	"strconv"

	"github.com/holiman/uint256"
	"github.com/pterm/pterm"

	"github.com/bitfsorg/libsynapse-go/address"
	"github.com/bitfsorg/libsynapse-go/errors"
	"github.com/bitfsorg/libsynapse-go/fixedpoint"
)

func parseAccount(s string) (address.Address, error) {
	return address.Resolve(s)
}

func parseAmount(s string) (*uint256.Int, error) {
	v, err := fixedpoint.Parse(s)
	if err != nil {
		return nil, errors.WithHint(err, "amounts are decimals such as 12 or 0.5")
	}
	return v, nil
}

func parsePoolID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Wrapf(errors.ErrNotFound, "pool id %q", s)
	}
	return id, nil
}

func fmtAmount(v *uint256.Int) string { return fixedpoint.Format(v) }

func renderTable(rows [][]string) error {
	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData(rows)).Render()
}
