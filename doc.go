/*
Xvmd is a dual-ledger node core: it admits, orders and packs transactions for
an EVM ledger running alongside a DVM ledger, and bridges balances between the
two.

The default options are sane for most users. Blocks are only produced when
the generate option is set.

Usage:

	xvmd [OPTIONS]

For an up-to-date help message:

	xvmd --help

The long form of all option flags (except -C) can be specified in a configuration
file that is automatically parsed when xvmd starts up. By default, the
configuration file is located at ~/.xvmd/xvmd.conf on POSIX-style operating
systems and %LOCALAPPDATA%\Xvmd\xvmd.conf on Windows. The -C (--configfile)
flag can be used to override this location.
*/
package main
