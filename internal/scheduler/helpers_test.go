package scheduler

import logx "wcnotify/pkg/logx"

func nopLogger() logx.Logger { return logx.Nop() }
