package blocktemplatebuilder

import (
	"github.com/xvmnet/xvmd/infrastructure/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.BLTB)
