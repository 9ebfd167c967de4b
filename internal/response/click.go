package response

import (
	"click-merchant-api/internal/models"
)

// PrepareSuccess builds the reply to an accepted prepare
func PrepareSuccess(clickTransID int64, merchantTransID string, prepareID uint) models.PrepareResponse {
	return models.PrepareResponse{
		ClickTransID:      clickTransID,
		MerchantTransID:   merchantTransID,
		MerchantPrepareID: prepareID,
		Error:             CodeSuccess,
		ErrorNote:         NoteSuccess,
	}
}

// PrepareFailure builds the zeroed reply Click expects on any error
func PrepareFailure(err error) models.PrepareResponse {
	code, note := codeOf(err)
	return models.PrepareResponse{
		MerchantTransID: "0",
		Error:           code,
		ErrorNote:       note,
	}
}

// CompleteSuccess builds the reply to an accepted complete
func CompleteSuccess(clickTransID int64, merchantTransID string) models.CompleteResponse {
	return models.CompleteResponse{
		ClickTransID:    clickTransID,
		MerchantTransID: merchantTransID,
		Error:           CodeSuccess,
		ErrorNote:       NoteSuccess,
	}
}

// CompleteFailure builds the zeroed reply Click expects on any error
func CompleteFailure(err error) models.CompleteResponse {
	code, note := codeOf(err)
	return models.CompleteResponse{
		MerchantTransID: "0",
		Error:           code,
		ErrorNote:       note,
	}
}

// codeOf maps any error to a gateway code. Unknown errors are reported as a
// failed update so that Click retries the callback.
func codeOf(err error) (int, string) {
	if ce, ok := AsClickError(err); ok {
		return ce.Code, ce.Note
	}
	return CodeUpdateFailed, NoteUpdateFailed
}
