package providers

import (
	"github.com/framekart/commerce/internal/providers/email"
	"github.com/framekart/commerce/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
