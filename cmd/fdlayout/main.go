package main

import (
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/fdlayout/fdcli"
)

func main() {
	xmain.Main(fdcli.Run)
}
