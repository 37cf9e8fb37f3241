package extract

const tenderXML = `<?xml version="1.0" encoding="UTF-8"?>
<ns3:export xmlns:ns3="http://zakupki.gov.ru/oos/export/1" xmlns:ns5="http://zakupki.gov.ru/oos/EPtypes/1" xmlns:ns4="http://zakupki.gov.ru/oos/common/1">
  <ns3:epNotificationEF2020>
    <ns5:commonInfo>
      <ns5:purchaseNumber> 0123456789012345678 </ns5:purchaseNumber>
      <ns5:purchaseObjectInfo>Test Tender Name</ns5:purchaseObjectInfo>
      <ns5:publishDTInEIS>2024-01-15T10:30:00+03:00</ns5:publishDTInEIS>
    </ns5:commonInfo>
    <ns5:notificationInfo>
      <ns5:contractConditionsInfo>
        <ns5:maxPriceInfo>
          <ns5:maxPrice>1000000.50</ns5:maxPrice>
        </ns5:maxPriceInfo>
      </ns5:contractConditionsInfo>
    </ns5:notificationInfo>
    <ns5:purchaseResponsibleInfo>
      <ns5:responsibleOrgInfo>
        <ns5:fullName>Test Organization</ns5:fullName>
        <ns5:INN>7701234567</ns5:INN>
      </ns5:responsibleOrgInfo>
      <ns5:responsibleInfo>
        <ns5:contactPersonInfo>
          <ns4:firstName>John</ns4:firstName>
          <ns4:lastName>Doe</ns4:lastName>
        </ns5:contactPersonInfo>
        <ns5:contactEMail>john@example.com</ns5:contactEMail>
        <ns5:contactPhone>+7-123-456-7890</ns5:contactPhone>
      </ns5:responsibleInfo>
    </ns5:purchaseResponsibleInfo>
    <ns5:attachmentsInfo>
      <ns4:attachmentInfo>
        <ns4:fileName>document1.pdf</ns4:fileName>
        <ns4:url>http://example.com/doc1.pdf</ns4:url>
      </ns4:attachmentInfo>
    </ns5:attachmentsInfo>
  </ns3:epNotificationEF2020>
</ns3:export>`

const purchaseObjectsXML = `<?xml version="1.0" encoding="UTF-8"?>
<ns3:export xmlns:ns3="http://zakupki.gov.ru/oos/export/1" xmlns:ns5="http://zakupki.gov.ru/oos/EPtypes/1" xmlns:ns4="http://zakupki.gov.ru/oos/common/1" xmlns:ns2="http://zakupki.gov.ru/oos/base/1">
  <ns3:epNotificationEF2020>
    <ns5:commonInfo>
      <ns5:purchaseNumber>0373200592025000025</ns5:purchaseNumber>
      <ns5:purchaseObjectInfo>Электронный аукцион на поставку тумбы с ванной моечной</ns5:purchaseObjectInfo>
    </ns5:commonInfo>
    <ns5:notificationInfo>
      <ns5:purchaseObjectsInfo>
        <ns5:notDrugPurchaseObjectsInfo>
          <ns4:purchaseObject>
            <ns4:sid>186548938</ns4:sid>
            <ns4:externalSid>217455879-1616303245</ns4:externalSid>
            <ns4:KTRU>
              <ns2:code>25.99.11.132-00000001</ns2:code>
              <ns2:name>Ванна моечная для пищеблока</ns2:name>
              <ns2:versionId>108402</ns2:versionId>
            </ns4:KTRU>
            <ns4:name>Ванна моечная для пищеблока</ns4:name>
            <ns4:OKEI>
              <ns2:code>796</ns2:code>
              <ns2:nationalCode>шт</ns2:nationalCode>
              <ns2:name>Штука</ns2:name>
            </ns4:OKEI>
            <ns4:price>66500</ns4:price>
            <ns4:quantity>
              <ns4:value>10</ns4:value>
            </ns4:quantity>
            <ns4:sum>665000</ns4:sum>
            <ns4:type>PRODUCT</ns4:type>
            <ns4:hierarchyType>ND</ns4:hierarchyType>
            <ns4:OKPD2>
              <ns2:OKPDCode>25.99.11.132</ns2:OKPDCode>
              <ns2:OKPDName>Ванны из нержавеющей стали</ns2:OKPDName>
            </ns4:OKPD2>
            <ns4:restrictionsInfo>
              <ns4:isPreferenseRFPurchaseObjects>true</ns4:isPreferenseRFPurchaseObjects>
            </ns4:restrictionsInfo>
          </ns4:purchaseObject>
          <ns4:totalSum>665000</ns4:totalSum>
          <ns5:quantityUndefined>false</ns5:quantityUndefined>
        </ns5:notDrugPurchaseObjectsInfo>
      </ns5:purchaseObjectsInfo>
    </ns5:notificationInfo>
  </ns3:epNotificationEF2020>
</ns3:export>`

const characteristicsXML = `<?xml version="1.0" encoding="UTF-8"?>
<ns3:export xmlns:ns3="http://zakupki.gov.ru/oos/export/1" xmlns:ns5="http://zakupki.gov.ru/oos/EPtypes/1" xmlns:ns4="http://zakupki.gov.ru/oos/common/1" xmlns:ns2="http://zakupki.gov.ru/oos/base/1">
  <ns3:epNotificationEF2020>
    <ns5:commonInfo>
      <ns5:purchaseNumber>0373200593425000054</ns5:purchaseNumber>
    </ns5:commonInfo>
    <ns5:notificationInfo>
      <ns5:purchaseObjectsInfo>
        <ns5:notDrugPurchaseObjectsInfo>
          <ns4:purchaseObject>
            <ns4:name>Реагенты сложные диагностические</ns4:name>
            <ns4:OKPD2>
              <ns2:OKPDCode>20.59.52.199</ns2:OKPDCode>
              <ns2:OKPDName>Реагенты сложные диагностические</ns2:OKPDName>
              <ns4:characteristics>
                <ns4:characteristicsUsingTextForm>
                  <ns4:name>Соответствие требованиям ТЗ</ns4:name>
                  <ns4:type>1</ns4:type>
                </ns4:characteristicsUsingTextForm>
              </ns4:characteristics>
            </ns4:OKPD2>
            <ns4:price>1000</ns4:price>
            <ns4:type>PRODUCT</ns4:type>
          </ns4:purchaseObject>
          <ns4:purchaseObject>
            <ns4:KTRU>
              <ns2:code>21.20.23.110-00005860</ns2:code>
              <ns2:name>Скрытая кровь в кале ИВД, набор</ns2:name>
            </ns4:KTRU>
            <ns4:name>Скрытая кровь в кале ИВД, набор</ns4:name>
            <ns4:characteristics>
              <ns4:characteristicsUsingTextForm>
                <ns4:name>Количество выполняемых тестов</ns4:name>
                <ns4:type>2</ns4:type>
              </ns4:characteristicsUsingTextForm>
            </ns4:characteristics>
            <ns4:price>2000</ns4:price>
            <ns4:type>PRODUCT</ns4:type>
          </ns4:purchaseObject>
          <ns4:purchaseObject>
            <ns4:name>Количество выполняемых исследований</ns4:name>
            <ns4:price>3000</ns4:price>
          </ns4:purchaseObject>
        </ns5:notDrugPurchaseObjectsInfo>
      </ns5:purchaseObjectsInfo>
    </ns5:notificationInfo>
  </ns3:epNotificationEF2020>
</ns3:export>`

const simpleTenderXML = `<?xml version="1.0" encoding="UTF-8"?>
<ns3:export xmlns:ns3="http://zakupki.gov.ru/oos/export/1" xmlns:ns5="http://zakupki.gov.ru/oos/EPtypes/1">
  <ns3:epNotificationEF2020>
    <ns5:commonInfo>
      <ns5:purchaseNumber>0123456789012345678</ns5:purchaseNumber>
      <ns5:purchaseObjectInfo>Simple Tender</ns5:purchaseObjectInfo>
    </ns5:commonInfo>
  </ns3:epNotificationEF2020>
</ns3:export>`

const lotsXML = `<?xml version="1.0" encoding="UTF-8"?>
<notification>
  <purchaseNumber>0300000000000000001</purchaseNumber>
  <collectingInfo>
    <startDT>2024-01-15T09:00:00+03:00</startDT>
    <endDT>До 25.01.2024 включительно</endDT>
  </collectingInfo>
  <lots>
    <lotInfo><lotNumber>1</lotNumber><lotName>Бумага</lotName><maxPrice>1 000,00</maxPrice></lotInfo>
    <lotInfo><lotNumber>2</lotNumber><lotName>Картридж</lotName><maxPrice>цена не указана</maxPrice></lotInfo>
  </lots>
  <contractGuarantee><part>5.5</part></contractGuarantee>
  <applicationGuarantee><part>1</part></applicationGuarantee>
</notification>`

const plainAttachmentsXML = `<?xml version="1.0" encoding="UTF-8"?>
<export>
  <attachmentsInfo>
    <attachmentInfo>
      <publishedContentId>ABC123</publishedContentId>
      <fileName>terms.docx</fileName>
      <fileSize>20480</fileSize>
      <docDescription>Техническое задание</docDescription>
      <url>https://zakupki.gov.ru/44fz/filestore/public/1.0/download/priz/file.html?uid=ABC123</url>
      <docKindInfo><name>Описание объекта закупки</name></docKindInfo>
      <docDate>2024-01-15T10:00:00+03:00</docDate>
    </attachmentInfo>
  </attachmentsInfo>
</export>`
