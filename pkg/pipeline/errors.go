package pipeline

import "errors"

// ErrSpec marks every validation failure of a pipeline file. The error
// text carries phase= and path= tags locating the offending element.
var ErrSpec = errors.New("invalid pipeline spec")
