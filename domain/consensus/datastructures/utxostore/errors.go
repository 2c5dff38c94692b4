package utxostore

import (
	"fmt"

	"github.com/btcprune/utxovalidator/domain/consensus/model"
	"github.com/btcprune/utxovalidator/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

var errAlreadyClosed = errors.New("batch already committed or aborted")

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}

func duplicateOutputError(existing *externalapi.StoredOutput) error {
	return fmt.Errorf("output %s already unspent", existing.OutPoint())
}
