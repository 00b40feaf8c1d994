package app

import logx "wcnotify/pkg/logx"

func logxNop() logx.Logger { return logx.Nop() }
