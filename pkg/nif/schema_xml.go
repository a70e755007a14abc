package nif

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

// defaultSchemaXML is the built-in format descriptor: the supported
// version set and the class catalogue the engine ships with. Callers
// with a richer descriptor load it through LoadFormat instead.
const defaultSchemaXML = `<niftoolsxml version="0.5">
	<version num="3.0.0.0">Star Trek: Bridge Commander</version>
	<version num="3.03">Dark Age of Camelot</version>
	<version num="3.1.0.0">Star Trek: Bridge Commander, Dark Age of Camelot</version>
	<version num="3.3.0.13">Oblivion</version>
	<version num="4.0.0.0">Freedom Force</version>
	<version num="4.0.0.2">Morrowind, Freedom Force</version>
	<version num="4.1.0.12">Dark Age of Camelot</version>
	<version num="4.2.0.2">Civilization IV</version>
	<version num="4.2.1.0">Dark Age of Camelot, Civilization IV</version>
	<version num="4.2.2.0">Dark Age of Camelot, Civilization IV, Empire Earth II</version>
	<version num="10.0.1.0">Civilization IV, Zoo Tycoon 2</version>
	<version num="10.0.1.2">Oblivion</version>
	<version num="10.0.1.3">Unknown</version>
	<version num="10.1.0.0">Axis and Allies, Civilization IV, Dark Age of Camelot, Entropia Universe, Freedom Force vs. the 3rd Reich, Kohan 2</version>
	<version num="10.1.0.106">Oblivion</version>
	<version num="10.2.0.0">Civilization IV, Loki, Oblivion, Prison Tycoon, Pro Cycling Manager, Red Ocean</version>
	<version num="20.0.0.4">Civilization IV, Oblivion</version>
	<version num="20.0.0.5">Oblivion</version>
	<version num="20.1.0.3">Megami Tensei: Imagine</version>
	<version num="20.2.0.6">Unknown</version>
	<version num="20.2.0.7">Emerge</version>
	<version num="20.2.0.8">Emerge</version>
	<version num="20.3.0.3">Emerge</version>
	<version num="20.3.0.6">Emerge</version>
	<version num="20.3.0.9">Warhammer</version>

	<basic name="byte" integral="true" size="1"/>
	<basic name="ushort" integral="true" size="2"/>
	<basic name="uint" integral="true" size="4"/>
	<basic name="short" integral="true" signed="true" size="2"/>
	<basic name="int" integral="true" signed="true" size="4"/>
	<basic name="BlockTypeIndex" integral="true" size="2"/>
	<basic name="Flags" integral="true" size="2"/>
	<basic name="float" special="float"/>
	<basic name="bool" special="bool"/>
	<basic name="HeaderString" special="headerstring"/>
	<basic name="LineString" special="linestring"/>
	<basic name="FileVersion" special="fileversion"/>
	<basic name="SizedString" special="sizedstring"/>
	<basic name="ShortString" special="shortstring"/>
	<basic name="string" special="stringref"/>
	<basic name="ByteArray" special="bytearray"/>
	<basic name="Ref" special="ref" template="true"/>
	<basic name="Ptr" special="ptr" template="true"/>

	<enum name="EndianType" storage="byte">
		<option name="ENDIAN_BIG" value="0"/>
		<option name="ENDIAN_LITTLE" value="1"/>
	</enum>
	<enum name="KeyType" storage="uint">
		<option name="LINEAR_KEY" value="1"/>
		<option name="QUADRATIC_KEY" value="2"/>
		<option name="TBC_KEY" value="3"/>
		<option name="XYZ_ROTATION_KEY" value="4"/>
		<option name="CONST_KEY" value="5"/>
	</enum>
	<enum name="ConsistencyType" storage="ushort">
		<option name="CT_MUTABLE" value="0x0000"/>
		<option name="CT_STATIC" value="0x4000"/>
		<option name="CT_VOLATILE" value="0x8000"/>
	</enum>
	<bitflags name="NiAVObjectFlags" storage="ushort">
		<option name="Hidden" bit="0"/>
		<option name="SelectiveUpdate" bit="1"/>
		<option name="SelectiveUpdateTransforms" bit="2"/>
		<option name="SelectiveUpdateController" bit="3"/>
	</bitflags>

	<compound name="Vector3">
		<add name="x" type="float"/>
		<add name="y" type="float"/>
		<add name="z" type="float"/>
	</compound>
	<compound name="TexCoord">
		<add name="u" type="float"/>
		<add name="v" type="float"/>
	</compound>
	<compound name="Triangle">
		<add name="v1" type="ushort"/>
		<add name="v2" type="ushort"/>
		<add name="v3" type="ushort"/>
	</compound>
	<compound name="Color4">
		<add name="r" type="float"/>
		<add name="g" type="float"/>
		<add name="b" type="float"/>
		<add name="a" type="float"/>
	</compound>
	<compound name="Matrix33">
		<add name="m11" type="float" default="1.0"/>
		<add name="m12" type="float"/>
		<add name="m13" type="float"/>
		<add name="m21" type="float"/>
		<add name="m22" type="float" default="1.0"/>
		<add name="m23" type="float"/>
		<add name="m31" type="float"/>
		<add name="m32" type="float"/>
		<add name="m33" type="float" default="1.0"/>
	</compound>
	<compound name="Quaternion">
		<add name="w" type="float" default="1.0"/>
		<add name="x" type="float"/>
		<add name="y" type="float"/>
		<add name="z" type="float"/>
	</compound>
	<compound name="ExportInfo">
		<add name="Creator" type="ShortString"/>
		<add name="Export Info 1" type="ShortString"/>
		<add name="Export Info 2" type="ShortString"/>
	</compound>
	<compound name="Key" istemplate="true">
		<add name="Time" type="float"/>
		<add name="Value" type="T"/>
	</compound>
	<compound name="KeyGroup" istemplate="true">
		<add name="Num Keys" type="uint"/>
		<add name="Interpolation" type="KeyType" cond="Num Keys != 0" default="LINEAR_KEY"/>
		<add name="Keys" type="Key" template="T" arr1="Num Keys"/>
	</compound>

	<compound name="Header">
		<add name="Header String" type="HeaderString"/>
		<add name="Copyright" type="LineString" arr1="3" ver2="3.1.0.0"/>
		<add name="Version" type="FileVersion" ver1="3.3.0.13"/>
		<add name="Endian Type" type="EndianType" ver1="20.0.0.4" default="ENDIAN_LITTLE"/>
		<add name="User Version" type="uint" ver1="10.1.0.0"/>
		<add name="Num Blocks" type="uint" ver1="3.3.0.13"/>
		<add name="User Version 2" type="uint" ver1="10.1.0.0" cond="User Version &gt;= 10" default="11"/>
		<add name="Export Info" type="ExportInfo" ver1="10.1.0.0" cond="User Version &gt;= 10"/>
		<add name="Num Block Types" type="ushort" ver1="5.0.0.1"/>
		<add name="Block Types" type="SizedString" arr1="Num Block Types" ver1="5.0.0.1"/>
		<add name="Block Type Index" type="BlockTypeIndex" arr1="Num Blocks" ver1="5.0.0.1"/>
		<add name="Num Strings" type="uint" ver1="20.1.0.3"/>
		<add name="Max String Length" type="uint" ver1="20.1.0.3"/>
		<add name="Strings" type="SizedString" arr1="Num Strings" ver1="20.1.0.3"/>
		<add name="Block Size" type="uint" arr1="Num Blocks" ver1="20.2.0.7"/>
	</compound>
	<compound name="Footer">
		<add name="Num Roots" type="uint" ver1="3.3.0.13"/>
		<add name="Roots" type="Ref" template="NiObject" arr1="Num Roots" ver1="3.3.0.13"/>
	</compound>

	<niobject name="NiObject" abstract="true"/>

	<niobject name="NiObjectNET" inherit="NiObject" abstract="true">
		<add name="Name" type="string"/>
		<add name="Extra Data" type="Ref" template="NiExtraData" ver2="4.2.2.0"/>
		<add name="Num Extra Data List" type="uint" ver1="10.0.1.0"/>
		<add name="Extra Data List" type="Ref" template="NiExtraData" arr1="Num Extra Data List" ver1="10.0.1.0"/>
		<add name="Controller" type="Ref" template="NiTimeController"/>
	</niobject>

	<niobject name="NiAVObject" inherit="NiObjectNET" abstract="true">
		<add name="Flags" type="NiAVObjectFlags" default="12"/>
		<add name="Translation" type="Vector3"/>
		<add name="Rotation" type="Matrix33"/>
		<add name="Scale" type="float" default="1.0"/>
		<add name="Velocity" type="Vector3" ver2="4.2.2.0"/>
		<add name="Num Properties" type="uint"/>
		<add name="Properties" type="Ref" template="NiProperty" arr1="Num Properties"/>
		<add name="Collision Object" type="Ref" template="NiCollisionObject" ver1="10.0.1.0"/>
	</niobject>

	<niobject name="NiProperty" inherit="NiObjectNET" abstract="true"/>
	<niobject name="NiDynamicEffect" inherit="NiAVObject" abstract="true"/>

	<niobject name="NiNode" inherit="NiAVObject">
		<add name="Num Children" type="uint"/>
		<add name="Children" type="Ref" template="NiAVObject" arr1="Num Children"/>
		<add name="Num Effects" type="uint"/>
		<add name="Effects" type="Ref" template="NiDynamicEffect" arr1="Num Effects"/>
	</niobject>

	<niobject name="NiBone" inherit="NiNode"/>

	<niobject name="NiTimeController" inherit="NiObject" abstract="true">
		<add name="Next Controller" type="Ref" template="NiTimeController"/>
		<add name="Flags" type="Flags"/>
		<add name="Frequency" type="float" default="1.0"/>
		<add name="Phase" type="float"/>
		<add name="Start Time" type="float"/>
		<add name="Stop Time" type="float"/>
		<add name="Target" type="Ptr" template="NiObjectNET" ver1="3.1.0.0"/>
	</niobject>

	<niobject name="NiVisController" inherit="NiTimeController"/>
	<niobject name="NiAlphaController" inherit="NiTimeController"/>

	<niobject name="NiExtraData" inherit="NiObject">
		<add name="Name" type="string" ver1="10.0.1.0"/>
		<add name="Next Extra Data" type="Ref" template="NiExtraData" ver2="4.2.2.0"/>
	</niobject>

	<niobject name="NiBinaryExtraData" inherit="NiExtraData">
		<add name="Binary Data" type="ByteArray"/>
	</niobject>

	<niobject name="NiTextKeyExtraData" inherit="NiExtraData">
		<add name="Num Text Keys" type="uint"/>
		<add name="Text Keys" type="Key" template="string" arr1="Num Text Keys"/>
	</niobject>

	<niobject name="NiFloatData" inherit="NiObject">
		<add name="Data" type="KeyGroup" template="float"/>
	</niobject>

	<niobject name="NiSkinInstance" inherit="NiObject">
		<add name="Skeleton Root" type="Ptr" template="NiNode"/>
		<add name="Num Bones" type="uint"/>
		<add name="Bones" type="Ptr" template="NiNode" arr1="Num Bones"/>
	</niobject>

	<niobject name="NiGeometry" inherit="NiAVObject" abstract="true">
		<add name="Data" type="Ref" template="NiGeometryData"/>
		<add name="Skin Instance" type="Ref" template="NiSkinInstance" ver1="3.3.0.13"/>
	</niobject>

	<niobject name="NiTriBasedGeom" inherit="NiGeometry" abstract="true"/>
	<niobject name="NiTriShape" inherit="NiTriBasedGeom"/>
	<niobject name="NiTriStrips" inherit="NiTriBasedGeom"/>

	<niobject name="NiGeometryData" inherit="NiObject" abstract="true">
		<add name="Num Vertices" type="ushort"/>
		<add name="Has Vertices" type="bool" default="1"/>
		<add name="Vertices" type="Vector3" arr1="Num Vertices" cond="Has Vertices"/>
		<add name="Has Normals" type="bool"/>
		<add name="Normals" type="Vector3" arr1="Num Vertices" cond="Has Normals"/>
		<add name="Center" type="Vector3"/>
		<add name="Radius" type="float"/>
		<add name="Has Vertex Colors" type="bool"/>
		<add name="Vertex Colors" type="Color4" arr1="Num Vertices" cond="Has Vertex Colors"/>
		<add name="Num UV Sets" type="ushort"/>
		<add name="Has UV" type="bool"/>
		<add name="UV Sets" type="TexCoord" arr1="Num UV Sets" arr2="Num Vertices" cond="Has UV"/>
		<add name="Consistency Flags" type="ConsistencyType" ver1="10.0.1.0" default="CT_MUTABLE"/>
	</niobject>

	<niobject name="NiTriBasedGeomData" inherit="NiGeometryData" abstract="true">
		<add name="Num Triangles" type="ushort"/>
	</niobject>

	<niobject name="NiTriShapeData" inherit="NiTriBasedGeomData">
		<add name="Num Triangle Points" type="uint"/>
		<add name="Has Triangles" type="bool" default="1"/>
		<add name="Triangles" type="Triangle" arr1="Num Triangles" cond="Has Triangles"/>
	</niobject>

	<niobject name="NiTriStripsData" inherit="NiTriBasedGeomData">
		<add name="Num Strips" type="ushort"/>
		<add name="Strip Lengths" type="ushort" arr1="Num Strips"/>
		<add name="Has Points" type="bool" default="1"/>
		<add name="Points" type="ushort" arr1="Num Strips" arr2="Strip Lengths" cond="Has Points"/>
	</niobject>

	<niobject name="NiCollisionObject" inherit="NiObject">
		<add name="Target" type="Ptr" template="NiAVObject"/>
		<add name="Body" type="Ref" template="bhkRefObject"/>
	</niobject>

	<niobject name="bhkRefObject" inherit="NiObject" abstract="true"/>
	<niobject name="bhkShape" inherit="bhkRefObject" abstract="true"/>
	<niobject name="bhkSphereShape" inherit="bhkShape">
		<add name="Radius" type="float"/>
	</niobject>
	<niobject name="bhkRigidBody" inherit="bhkRefObject">
		<add name="Shape" type="Ref" template="bhkShape"/>
		<add name="Mass" type="float"/>
	</niobject>
</niftoolsxml>
`
