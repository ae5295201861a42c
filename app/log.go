package app

import (
	"github.com/xvmnet/xvmd/infrastructure/logger"
	"github.com/xvmnet/xvmd/util/panics"
)

var log, _ = logger.Get(logger.SubsystemTags.XVMD)
var spawn = panics.GoroutineWrapperFunc(log)
