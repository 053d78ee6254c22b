package main

import (
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/fdlayout/fdplugin"
)

func main() {
	xmain.Main(fdplugin.Serve(&fdplugin.ForcePlugin))
}
